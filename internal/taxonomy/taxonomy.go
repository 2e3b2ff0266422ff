// This file implements the taxonomy synchronizer: set-diff sync of a
// record's taxonomy rows and batched loading of assignments.
package taxonomy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/dialect"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Synchronizer reads and writes the taxonomy table for one logical
// operation.
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
	return &Synchronizer{gw: gw, cfg: cfg, table: cfg.FixedTable(types.TableTaxonomy), log: log}
}

type row struct {
	id   int64
	slug string
}

// Sync converges the stored assignments of record contentID to desired,
// one declared taxonomy type at a time. A type missing from desired is
// cleared. Values of undeclared types are ignored.
func (s *Synchronizer) Sync(ctx context.Context, contentID int64, ct *types.ContentType, desired map[string][]string) error {
	for key := range desired {
		if t, ok := s.cfg.Taxonomy(key); !ok || !ct.HasTaxonomy(t.Slug) {
			s.log.Debugw("ignoring undeclared taxonomy", "contenttype", ct.Slug, "taxonomy", key)
		}
	}

	for _, slug := range ct.Taxonomy {
		tax, ok := s.cfg.Taxonomy(slug)
		if !ok {
			continue
		}
		want := normalize(desiredFor(desired, tax))
		if !tax.Multiple && len(want) > 1 {
			s.log.Debugw("keeping first value of single-valued taxonomy", "taxonomy", tax.Slug, "values", want)
			want = want[:1]
		}
		if err := s.syncType(ctx, contentID, ct.Slug, tax, want); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer) syncType(ctx context.Context, contentID int64, contentType string, tax *types.Taxonomy, want []string) error {
	current, err := s.current(ctx, contentID, contentType, tax.Slug)
	if err != nil {
		return err
	}
	slugs := make([]string, len(current))
	for i, r := range current {
		slugs[i] = r.slug
	}

	toInsert, _ := types.DiffSets(want, slugs)
	for _, slug := range toInsert {
		_, err := s.gw.Insert(ctx, s.table, map[string]any{
			"content_id":   contentID,
			"contenttype":  contentType,
			"taxonomytype": tax.Slug,
			"slug":         slug,
			"name":         tax.OptionName(slug),
		})
		if err != nil {
			return fmt.Errorf("inserting taxonomy %s=%s for %s/%d: %w", tax.Slug, slug, contentType, contentID, err)
		}
	}

	// Rows are deleted by id so duplicates of a kept slug go too.
	keep := make(map[string]bool, len(want))
	for _, w := range want {
		keep[w] = true
	}
	seen := make(map[string]bool, len(current))
	for _, r := range current {
		if keep[r.slug] && !seen[r.slug] {
			seen[r.slug] = true
			continue
		}
		if _, err := s.gw.Delete(ctx, s.table, map[string]any{"id": r.id}); err != nil {
			return fmt.Errorf("deleting taxonomy row %d: %w", r.id, err)
		}
	}
	return nil
}

func (s *Synchronizer) current(ctx context.Context, contentID int64, contentType, taxonomyType string) ([]row, error) {
	d := s.gw.Dialect()
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ? AND %s = ? AND %s = ? ORDER BY %s",
		d.QuoteIdentifier("id"), d.QuoteIdentifier("slug"), d.QuoteIdentifier(s.table),
		d.QuoteIdentifier("content_id"), d.QuoteIdentifier("contenttype"), d.QuoteIdentifier("taxonomytype"),
		d.QuoteIdentifier("id"))
	rows, err := s.gw.Query(ctx, q, contentID, contentType, taxonomyType)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy %s for %s/%d: %w", taxonomyType, contentType, contentID, err)
	}
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		id, _ := types.RawInt64(r["id"])
		out = append(out, row{id: id, slug: types.RawString(r["slug"])})
	}
	return out, nil
}

// Attach loads the assignments of every record in one query and sets each
// record's Taxonomy map. Records of a content type with a grouping
// taxonomy also get their Group.
func (s *Synchronizer) Attach(ctx context.Context, ct *types.ContentType, records []*types.Record) error {
	if len(records) == 0 || len(ct.Taxonomy) == 0 {
		return nil
	}

	byID := make(map[int64]*types.Record, len(records))
	ids := make([]any, 0, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; !dup {
			ids = append(ids, r.ID)
		}
		byID[r.ID] = r
		r.Taxonomy = make(map[string][]string, len(ct.Taxonomy))
		for _, t := range ct.Taxonomy {
			r.Taxonomy[t] = []string{}
		}
	}
	taxTypes := make([]any, len(ct.Taxonomy))
	for i, t := range ct.Taxonomy {
		taxTypes[i] = t
	}

	d := s.gw.Dialect()
	q := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s WHERE %s = ? AND %s IN (%s) AND %s IN (%s) ORDER BY %s",
		d.QuoteIdentifier("content_id"), d.QuoteIdentifier("taxonomytype"),
		d.QuoteIdentifier("slug"), d.QuoteIdentifier("name"), d.QuoteIdentifier(s.table),
		d.QuoteIdentifier("contenttype"),
		d.QuoteIdentifier("content_id"), dialect.Placeholders(len(ids)),
		d.QuoteIdentifier("taxonomytype"), dialect.Placeholders(len(taxTypes)),
		d.QuoteIdentifier("id"))
	args := append([]any{ct.Slug}, ids...)
	args = append(args, taxTypes...)
	rows, err := s.gw.Query(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("loading taxonomies of %s: %w", ct.Slug, err)
	}

	grouping, _ := s.cfg.GroupingTaxonomy(ct)
	for _, row := range rows {
		id, _ := types.RawInt64(row["content_id"])
		rec, ok := byID[id]
		if !ok {
			continue
		}
		taxType := types.RawString(row["taxonomytype"])
		slug := types.RawString(row["slug"])
		rec.Taxonomy[taxType] = append(rec.Taxonomy[taxType], slug)

		if grouping != nil && taxType == grouping.Slug && rec.Group == nil {
			rec.Group = groupFor(grouping, slug, types.RawString(row["name"]))
		}
	}
	return nil
}

func groupFor(t *types.Taxonomy, slug, stored string) *types.Group {
	order := t.OptionIndex(slug)
	if order < 0 {
		order = len(t.Options)
	}
	name := t.OptionName(slug)
	if name == slug && stored != "" {
		name = stored
	}
	return &types.Group{Slug: slug, Name: name, Order: order}
}

// DeleteFor removes every taxonomy row of one record.
func (s *Synchronizer) DeleteFor(ctx context.Context, contentType string, id int64) (int64, error) {
	n, err := s.gw.Delete(ctx, s.table, map[string]any{"contenttype": contentType, "content_id": id})
	if err != nil {
		return 0, fmt.Errorf("deleting taxonomies of %s/%d: %w", contentType, id, err)
	}
	return n, nil
}

// Filter renders a predicate on a content table's id selecting records
// with a taxonomyType row whose slug satisfies cond. With negate the
// predicate selects records without such a row.
func Filter(d types.Dialect, table, contentType, taxonomyType string, negate bool, cond func(column string) (string, any)) (string, []any) {
	c, arg := cond(d.QuoteIdentifier("slug"))
	in := "IN"
	if negate {
		in = "NOT IN"
	}
	q := fmt.Sprintf("%s %s (SELECT %s FROM %s WHERE %s = ? AND %s = ? AND %s)",
		d.QuoteIdentifier(types.ColumnID), in,
		d.QuoteIdentifier("content_id"), d.QuoteIdentifier(table),
		d.QuoteIdentifier("contenttype"), d.QuoteIdentifier("taxonomytype"), c)
	return q, []any{contentType, taxonomyType, arg}
}

func desiredFor(desired map[string][]string, t *types.Taxonomy) []string {
	if v, ok := desired[t.Slug]; ok {
		return v
	}
	if t.SingularSlug != "" {
		return desired[t.SingularSlug]
	}
	return nil
}

// normalize trims values and drops empties and repeats, keeping order.
func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
