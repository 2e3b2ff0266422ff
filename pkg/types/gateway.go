package types

import "context"

// Row is one result row keyed by column name.
type Row map[string]any

// TableMetadata maps table name to its columns and their native types.
type TableMetadata map[string]map[string]string

// HasColumn reports whether table exists and carries column.
func (m TableMetadata) HasColumn(table, column string) bool {
	cols, ok := m[table]
	if !ok {
		return false
	}
	_, ok = cols[column]
	return ok
}

// Gateway is the narrow database surface the storage core consumes.
// Statements use ? placeholders; implementations rebind them for the
// active dialect. Timeouts and cancellation travel on ctx.
type Gateway interface {
	// IntrospectSchema returns every table of the connected database with
	// its columns.
	IntrospectSchema(ctx context.Context) (TableMetadata, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Query runs a statement and returns all rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Insert writes one row and returns its generated id.
	Insert(ctx context.Context, table string, values map[string]any) (int64, error)

	// Update sets values on rows matching every where equality.
	Update(ctx context.Context, table string, values, where map[string]any) (int64, error)

	// Delete removes rows matching every where equality.
	Delete(ctx context.Context, table string, where map[string]any) (int64, error)

	// Dialect returns the SQL dialect of the connection.
	Dialect() Dialect
}

// Session is a Gateway pinned to one connection. Close returns the
// connection to the pool.
type Session interface {
	Gateway
	Close() error
}

// Pinner is implemented by gateways that can pin a single connection, so
// that all statements of one logical operation share it.
type Pinner interface {
	Pin(ctx context.Context) (Session, error)
}

// Dialect generates the SQL fragments that differ between databases.
type Dialect interface {
	// Name returns the driver name the dialect serves.
	Name() string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// QuoteLiteral quotes a string literal.
	QuoteLiteral(s string) string
	// Rebind rewrites ? placeholders into the dialect's form.
	Rebind(query string) string
	// ColumnDefinition renders the type and constraints of a column.
	ColumnDefinition(c Column) string
	// GroupConcat renders an aggregate joining expr values with commas.
	GroupConcat(expr string) string
	// Random renders a random ordering expression.
	Random() string
	// ColumnsQuery returns a statement listing (table_name, column_name,
	// data_type) for the current schema, or "" when the gateway must
	// introspect another way.
	ColumnsQuery() string
	// InsertReturningID reports whether inserts must use RETURNING id
	// instead of the driver's last insert id.
	InsertReturningID() bool
}
