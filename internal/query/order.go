package query

import (
	"strings"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// OrderTerm is one validated ORDER BY column.
type OrderTerm struct {
	Column string
	Desc   bool
}

// ParseOrder reads a comma-separated order. A leading "-" or a trailing
// "DESC" sorts descending; a trailing "ASC" is accepted. Columns rejected
// by allowed are returned in dropped. When any term survives, id is
// appended as a tie-breaker in the direction of the first term.
func ParseOrder(s string, allowed func(string) bool) (terms []OrderTerm, dropped []string) {
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var t OrderTerm
		fields := strings.Fields(raw)
		switch {
		case len(fields) == 2 && strings.EqualFold(fields[1], "DESC"):
			t = OrderTerm{Column: fields[0], Desc: true}
		case len(fields) == 2 && strings.EqualFold(fields[1], "ASC"):
			t = OrderTerm{Column: fields[0]}
		case len(fields) == 1 && strings.HasPrefix(raw, "-"):
			t = OrderTerm{Column: strings.TrimPrefix(raw, "-"), Desc: true}
		case len(fields) == 1:
			t = OrderTerm{Column: raw}
		default:
			dropped = append(dropped, raw)
			continue
		}
		if !allowed(t.Column) {
			dropped = append(dropped, raw)
			continue
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil, dropped
	}
	for _, t := range terms {
		if t.Column == types.ColumnID {
			return terms, dropped
		}
	}
	return append(terms, OrderTerm{Column: types.ColumnID, Desc: terms[0].Desc}), dropped
}

func orderClause(d types.Dialect, terms []OrderTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		dir := "ASC"
		if t.Desc {
			dir = "DESC"
		}
		parts[i] = d.QuoteIdentifier(t.Column) + " " + dir
	}
	return strings.Join(parts, ", ")
}
