package query

import (
	"math"
	"sort"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// SortByGroup orders records by their grouping value: declared option
// order first, then group slug. Records without a group go last. The sort
// is stable, so the SQL order survives within a group.
func SortByGroup(records []*types.Record) {
	key := func(r *types.Record) (int, string) {
		if r.Group == nil {
			return math.MaxInt, ""
		}
		return r.Group.Order, r.Group.Slug
	}
	sort.SliceStable(records, func(i, j int) bool {
		oi, si := key(records[i])
		oj, sj := key(records[j])
		if oi != oj {
			return oi < oj
		}
		return si < sj
	})
}
