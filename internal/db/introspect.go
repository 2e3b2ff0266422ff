package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// IntrospectSchema lists every table with its columns. A table that cannot
// be read completely fails the whole call; no partial table is returned.
func (e executor) IntrospectSchema(ctx context.Context) (types.TableMetadata, error) {
	if q := e.dialect.ColumnsQuery(); q != "" {
		return e.introspectInformationSchema(ctx, q)
	}
	return e.introspectSQLite(ctx)
}

func (e executor) introspectInformationSchema(ctx context.Context, query string) (types.TableMetadata, error) {
	rows, err := e.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("introspecting schema: %w", err)
	}
	meta := make(types.TableMetadata)
	for _, row := range rows {
		table := types.RawString(row["table_name"])
		column := types.RawString(row["column_name"])
		if table == "" || column == "" {
			continue
		}
		if meta[table] == nil {
			meta[table] = make(map[string]string)
		}
		meta[table][column] = strings.ToLower(types.RawString(row["data_type"]))
	}
	return meta, nil
}

func (e executor) introspectSQLite(ctx context.Context) (types.TableMetadata, error) {
	tables, err := e.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	meta := make(types.TableMetadata, len(tables))
	for _, t := range tables {
		name := types.RawString(t["name"])
		cols, err := e.Query(ctx, "PRAGMA table_info("+e.dialect.QuoteIdentifier(name)+")")
		if err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", name, err)
		}
		columns := make(map[string]string, len(cols))
		for _, c := range cols {
			columns[types.RawString(c["name"])] = strings.ToLower(types.RawString(c["type"]))
		}
		meta[name] = columns
	}
	return meta, nil
}
