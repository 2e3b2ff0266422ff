package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor runs statements for one dialect over a querier.
type executor struct {
	q       querier
	dialect types.Dialect
	log     *zap.SugaredLogger
}

// errEmptyCondition guards against unconditional UPDATE and DELETE.
var errEmptyCondition = errors.New("statement requires at least one condition")

func (e executor) Dialect() types.Dialect { return e.dialect }

func (e executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	query = e.dialect.Rebind(query)
	e.log.Debugw("exec", "query", query, "args", len(args))
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

func (e executor) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	query = e.dialect.Rebind(query)
	e.log.Debugw("query", "query", query, "args", len(args))
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []types.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			// Drivers may reuse byte buffers between rows.
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func (e executor) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	cols := sortedKeys(values)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = e.dialect.QuoteIdentifier(c)
		marks[i] = "?"
		args[i] = values[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.dialect.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	if e.dialect.InsertReturningID() {
		query = e.dialect.Rebind(query + " RETURNING " + e.dialect.QuoteIdentifier(types.ColumnID))
		var id int64
		if err := e.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("inserting into %s: %w", table, err)
		}
		return id, nil
	}

	res, err := e.q.ExecContext(ctx, e.dialect.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

func (e executor) Update(ctx context.Context, table string, values, where map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	if len(where) == 0 {
		return 0, fmt.Errorf("updating %s: %w", table, errEmptyCondition)
	}

	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(values)+len(where))
	for i, c := range cols {
		sets[i] = e.dialect.QuoteIdentifier(c) + " = ?"
		args = append(args, values[c])
	}
	cond, condArgs := e.conditions(where)
	args = append(args, condArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		e.dialect.QuoteIdentifier(table), strings.Join(sets, ", "), cond)
	n, err := e.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", table, err)
	}
	return n, nil
}

func (e executor) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, fmt.Errorf("deleting from %s: %w", table, errEmptyCondition)
	}
	cond, args := e.conditions(where)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", e.dialect.QuoteIdentifier(table), cond)
	n, err := e.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	return n, nil
}

// conditions renders where as an AND of equalities.
func (e executor) conditions(where map[string]any) (string, []any) {
	cols := sortedKeys(where)
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = e.dialect.QuoteIdentifier(c) + " = ?"
		args[i] = where[c]
	}
	return strings.Join(parts, " AND "), args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
