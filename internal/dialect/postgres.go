package dialect

import (
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Postgres is the dialect of github.com/lib/pq.
type Postgres struct{}

var _ types.Dialect = Postgres{}

func (Postgres) Name() string { return types.DriverPostgres }

func (Postgres) QuoteIdentifier(name string) string { return quoteWith(name, `"`) }

func (Postgres) QuoteLiteral(s string) string { return quoteString(s) }

func (Postgres) Rebind(query string) string { return rebindNumbered(query) }

func (Postgres) ColumnDefinition(c types.Column) string {
	switch c.Kind {
	case types.ColumnAutoID:
		return "SERIAL PRIMARY KEY"
	case types.ColumnInteger:
		return "INTEGER NOT NULL DEFAULT 0"
	case types.ColumnBoolean:
		return "BOOLEAN NOT NULL DEFAULT TRUE"
	case types.ColumnString:
		return stringColumn(c)
	case types.ColumnDecimal:
		return decimalColumn(c)
	case types.ColumnText:
		return "TEXT NOT NULL DEFAULT ''"
	case types.ColumnTimestamp:
		return "TIMESTAMP NULL"
	default:
		return ""
	}
}

func (Postgres) GroupConcat(expr string) string {
	return "string_agg(CAST(" + expr + " AS TEXT), ',')"
}

func (Postgres) Random() string { return "RANDOM()" }

func (Postgres) ColumnsQuery() string {
	return `SELECT table_name AS table_name, column_name AS column_name, data_type AS data_type
FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`
}

func (Postgres) InsertReturningID() bool { return true }
