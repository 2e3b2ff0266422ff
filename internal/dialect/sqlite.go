package dialect

import (
	"github.com/mesh-intelligence/folio/pkg/types"
)

// SQLite is the dialect of modernc.org/sqlite.
type SQLite struct{}

var _ types.Dialect = SQLite{}

func (SQLite) Name() string { return types.DriverSQLite }

func (SQLite) QuoteIdentifier(name string) string { return quoteWith(name, `"`) }

func (SQLite) QuoteLiteral(s string) string { return quoteString(s) }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) ColumnDefinition(c types.Column) string {
	switch c.Kind {
	case types.ColumnAutoID:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case types.ColumnInteger:
		return "INTEGER NOT NULL DEFAULT 0"
	case types.ColumnBoolean:
		return "BOOLEAN NOT NULL DEFAULT 1"
	case types.ColumnString:
		return stringColumn(c)
	case types.ColumnDecimal:
		return decimalColumn(c)
	case types.ColumnText:
		return "TEXT NOT NULL DEFAULT ''"
	case types.ColumnTimestamp:
		return "DATETIME NULL"
	default:
		return ""
	}
}

func (SQLite) GroupConcat(expr string) string {
	return "group_concat(" + expr + ", ',')"
}

func (SQLite) Random() string { return "RANDOM()" }

// ColumnsQuery is empty: SQLite is introspected through sqlite_master and
// PRAGMA table_info.
func (SQLite) ColumnsQuery() string { return "" }

func (SQLite) InsertReturningID() bool { return false }
