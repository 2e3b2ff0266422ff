package dialect

import (
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// MySQL is the dialect of github.com/go-sql-driver/mysql.
type MySQL struct{}

var _ types.Dialect = MySQL{}

func (MySQL) Name() string { return types.DriverMySQL }

func (MySQL) QuoteIdentifier(name string) string { return quoteWith(name, "`") }

// QuoteLiteral also escapes backslashes, which MySQL treats as escapes
// inside string literals by default.
func (MySQL) QuoteLiteral(s string) string {
	return quoteString(strings.ReplaceAll(s, `\`, `\\`))
}

func (MySQL) Rebind(query string) string { return query }

func (MySQL) ColumnDefinition(c types.Column) string {
	switch c.Kind {
	case types.ColumnAutoID:
		return "INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case types.ColumnInteger:
		return "INT NOT NULL DEFAULT 0"
	case types.ColumnBoolean:
		return "TINYINT(1) NOT NULL DEFAULT 1"
	case types.ColumnString:
		return stringColumn(c)
	case types.ColumnDecimal:
		return decimalColumn(c)
	case types.ColumnText:
		// Expression defaults are required for TEXT columns.
		return "LONGTEXT NOT NULL DEFAULT ('')"
	case types.ColumnTimestamp:
		return "DATETIME NULL"
	default:
		return ""
	}
}

func (MySQL) GroupConcat(expr string) string {
	return "GROUP_CONCAT(" + expr + " SEPARATOR ',')"
}

func (MySQL) Random() string { return "RAND()" }

func (MySQL) ColumnsQuery() string {
	return `SELECT table_name AS table_name, column_name AS column_name, data_type AS data_type
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`
}

func (MySQL) InsertReturningID() bool { return false }
