// Package dialect renders the SQL fragments that differ between the
// supported databases: identifier and literal quoting, placeholder
// rebinding, column DDL, string aggregation and schema introspection.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// For returns the dialect serving the named driver.
func For(driver string) (types.Dialect, error) {
	switch driver {
	case types.DriverSQLite:
		return SQLite{}, nil
	case types.DriverMySQL:
		return MySQL{}, nil
	case types.DriverPostgres:
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrDialectUnknown, driver)
	}
}

// Placeholders returns n comma-separated ? placeholders for an IN list.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// quoteWith wraps name in q, doubling any embedded q.
func quoteWith(name, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// quoteString renders s as a single-quoted SQL string literal.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// rebindNumbered rewrites ? placeholders outside string literals and
// quoted identifiers into $1, $2, ...
func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stringColumn renders the shared VARCHAR definition.
func stringColumn(c types.Column) string {
	length := c.Length
	if length <= 0 {
		length = 256
	}
	return fmt.Sprintf("VARCHAR(%d) NOT NULL DEFAULT ''", length)
}

// decimalColumn renders the shared DECIMAL definition.
func decimalColumn(c types.Column) string {
	precision, scale := c.Precision, c.Scale
	if precision <= 0 {
		precision, scale = 18, 9
	}
	return fmt.Sprintf("DECIMAL(%d,%d) NOT NULL DEFAULT 0", precision, scale)
}
