// Package relations keeps the relation rows linking content records in step
// with each record's declared relation fields.
package relations

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/dialect"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Synchronizer reads and writes the relation table for one logical
// operation. A relation row links (from_contenttype, from_id) to to_id
// under the relation field name stored in to_contenttype.
type Synchronizer struct {
	gw    types.Gateway
	cfg   *types.Config
	table string
	log   *zap.SugaredLogger
}

// New returns a Synchronizer over gw. A nil log discards output.
func New(gw types.Gateway, cfg *types.Config, log *zap.SugaredLogger) *Synchronizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Synchronizer{gw: gw, cfg: cfg, table: cfg.FixedTable(types.TableRelations), log: log}
}

// Sync converges the outgoing links of record fromID to desired, one
// declared relation field at a time. A field missing from desired is
// cleared; undeclared fields are ignored.
func (s *Synchronizer) Sync(ctx context.Context, fromID int64, ct *types.ContentType, desired map[string][]int64) error {
	for field := range desired {
		if _, ok := ct.Relation(field); !ok {
			s.log.Debugw("ignoring undeclared relation", "contenttype", ct.Slug, "field", field)
		}
	}
	for _, rel := range ct.Relations {
		want := positive(desired[rel.Name])
		if !rel.Multiple && len(want) > 1 {
			want = want[:1]
		}
		if err := s.syncField(ctx, fromID, ct.Slug, rel.Name, want); err != nil {
			return err
		}
	}
	return nil
}

type link struct {
	id   int64
	toID int64
}

func (s *Synchronizer) syncField(ctx context.Context, fromID int64, fromType, field string, want []int64) error {
	current, err := s.current(ctx, fromID, fromType, field)
	if err != nil {
		return err
	}
	have := make([]int64, len(current))
	for i, l := range current {
		have[i] = l.toID
	}

	toInsert, _ := types.DiffSets(want, have)
	for _, to := range toInsert {
		_, err := s.gw.Insert(ctx, s.table, map[string]any{
			"from_contenttype": fromType,
			"from_id":          fromID,
			"to_contenttype":   field,
			"to_id":            to,
		})
		if err != nil {
			return fmt.Errorf("linking %s/%d %s -> %d: %w", fromType, fromID, field, to, err)
		}
	}

	keep := make(map[int64]bool, len(want))
	for _, w := range want {
		keep[w] = true
	}
	seen := make(map[int64]bool, len(current))
	for _, l := range current {
		if keep[l.toID] && !seen[l.toID] {
			seen[l.toID] = true
			continue
		}
		if _, err := s.gw.Delete(ctx, s.table, map[string]any{"id": l.id}); err != nil {
			return fmt.Errorf("deleting relation row %d: %w", l.id, err)
		}
	}
	return nil
}

func (s *Synchronizer) current(ctx context.Context, fromID int64, fromType, field string) ([]link, error) {
	d := s.gw.Dialect()
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ? AND %s = ? AND %s = ? ORDER BY %s",
		d.QuoteIdentifier("id"), d.QuoteIdentifier("to_id"), d.QuoteIdentifier(s.table),
		d.QuoteIdentifier("from_contenttype"), d.QuoteIdentifier("from_id"), d.QuoteIdentifier("to_contenttype"),
		d.QuoteIdentifier("id"))
	rows, err := s.gw.Query(ctx, q, fromType, fromID, field)
	if err != nil {
		return nil, fmt.Errorf("loading relation %s of %s/%d: %w", field, fromType, fromID, err)
	}
	out := make([]link, 0, len(rows))
	for _, r := range rows {
		id, _ := types.RawInt64(r["id"])
		to, _ := types.RawInt64(r["to_id"])
		out = append(out, link{id: id, toID: to})
	}
	return out, nil
}

// Attach loads the outgoing links of every record with one aggregated
// query grouped by (from_id, to_contenttype) and sets each record's
// Relations map. Target ids are sorted ascending.
func (s *Synchronizer) Attach(ctx context.Context, ct *types.ContentType, records []*types.Record) error {
	if len(records) == 0 || len(ct.Relations) == 0 {
		return nil
	}

	byID := make(map[int64]*types.Record, len(records))
	ids := make([]any, 0, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; !dup {
			ids = append(ids, r.ID)
		}
		byID[r.ID] = r
		r.Relations = make(map[string][]int64, len(ct.Relations))
		for _, rel := range ct.Relations {
			r.Relations[rel.Name] = []int64{}
		}
	}

	d := s.gw.Dialect()
	fromID := d.QuoteIdentifier("from_id")
	toType := d.QuoteIdentifier("to_contenttype")
	q := fmt.Sprintf("SELECT %s, %s, %s AS ids FROM %s WHERE %s = ? AND %s IN (%s) GROUP BY %s, %s",
		fromID, toType, d.GroupConcat(d.QuoteIdentifier("to_id")), d.QuoteIdentifier(s.table),
		d.QuoteIdentifier("from_contenttype"), fromID, dialect.Placeholders(len(ids)),
		fromID, toType)
	rows, err := s.gw.Query(ctx, q, append([]any{ct.Slug}, ids...)...)
	if err != nil {
		return fmt.Errorf("loading relations of %s: %w", ct.Slug, err)
	}

	for _, row := range rows {
		id, _ := types.RawInt64(row["from_id"])
		rec, ok := byID[id]
		if !ok {
			continue
		}
		field := types.RawString(row["to_contenttype"])
		if _, declared := ct.Relation(field); !declared {
			continue
		}
		rec.Relations[field] = parseIDs(types.RawString(row["ids"]))
	}
	return nil
}

// DeleteFor removes the outgoing links of one record and every link
// targeting it from a relation field that points at its content type.
func (s *Synchronizer) DeleteFor(ctx context.Context, contentType string, id int64) (int64, error) {
	n, err := s.gw.Delete(ctx, s.table, map[string]any{"from_contenttype": contentType, "from_id": id})
	if err != nil {
		return 0, fmt.Errorf("deleting relations of %s/%d: %w", contentType, id, err)
	}
	for i := range s.cfg.ContentTypes {
		from := &s.cfg.ContentTypes[i]
		for _, rel := range from.Relations {
			if rel.ContentType != contentType {
				continue
			}
			m, err := s.gw.Delete(ctx, s.table, map[string]any{
				"from_contenttype": from.Slug,
				"to_contenttype":   rel.Name,
				"to_id":            id,
			})
			if err != nil {
				return n, fmt.Errorf("deleting links to %s/%d: %w", contentType, id, err)
			}
			n += m
		}
	}
	return n, nil
}

// Filter renders a predicate on a content table's id selecting records of
// fromContentType that link through field to a target satisfying cond.
// With negate the predicate selects records without such a link.
func Filter(d types.Dialect, table, fromContentType, field string, negate bool, cond func(column string) (string, any)) (string, []any) {
	c, arg := cond(d.QuoteIdentifier("to_id"))
	in := "IN"
	if negate {
		in = "NOT IN"
	}
	q := fmt.Sprintf("%s %s (SELECT %s FROM %s WHERE %s = ? AND %s = ? AND %s)",
		d.QuoteIdentifier(types.ColumnID), in,
		d.QuoteIdentifier("from_id"), d.QuoteIdentifier(table),
		d.QuoteIdentifier("from_contenttype"), d.QuoteIdentifier("to_contenttype"), c)
	return q, []any{fromContentType, field, arg}
}

func parseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if out == nil {
		out = []int64{}
	}
	return out
}

// positive drops non-positive ids and repeats, keeping order.
func positive(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
