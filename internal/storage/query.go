package storage

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/internal/relations"
	"github.com/mesh-intelligence/folio/internal/taxonomy"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Result is the outcome of a content query. Single results carry Record,
// which is nil when nothing matched; listings carry Records and Pager.
type Result struct {
	Single  bool            `json:"single"`
	Record  *types.Record   `json:"record,omitempty"`
	Records []*types.Record `json:"records,omitempty"`
	Pager   *types.Pager    `json:"pager,omitempty"`
}

// Query resolves slug, which may be a shortcut such as "entry/12",
// "page/about" or "entry/latest/5", and returns the matching records with
// their taxonomies and relations attached.
func (s *Storage) Query(ctx context.Context, slug string, params types.Params) (*Result, error) {
	gw, release, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	d := gw.Dialect()
	plan, err := query.NewBuilder(s.cfg, d, s.log).Build(slug, params)
	if err != nil {
		return nil, err
	}
	ct := plan.ContentType

	rows, err := gw.Query(ctx, plan.SelectSQL(d), plan.Args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", ct.Slug, err)
	}
	records := make([]*types.Record, len(rows))
	for i, row := range rows {
		records[i] = hydrate(ct, row)
	}

	if err := taxonomy.New(gw, s.cfg, s.log).Attach(ctx, ct, records); err != nil {
		return nil, err
	}
	if err := relations.New(gw, s.cfg, s.log).Attach(ctx, ct, records); err != nil {
		return nil, err
	}
	if plan.Grouping != nil {
		query.SortByGroup(records)
	}

	if plan.Single {
		res := &Result{Single: true}
		if len(records) > 0 {
			res.Record = records[0]
		}
		return res, nil
	}

	count, err := gw.Query(ctx, plan.CountSQL(d), plan.Args...)
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", ct.Slug, err)
	}
	var total int64
	if len(count) > 0 {
		total, _ = types.RawInt64(count[0]["total"])
	}
	pager := types.NewPager(ct.Slug, int(total), plan.Limit, plan.Offset)
	return &Result{Records: records, Pager: &pager}, nil
}

// hydrate converts one table row into a record. Columns the content type
// does not declare are ignored; declared columns missing from the row get
// their defaults.
func hydrate(ct *types.ContentType, row types.Row) *types.Record {
	rec := types.NewRecord(ct.Slug)
	rec.ID, _ = types.RawInt64(row[types.ColumnID])
	rec.Slug = types.RawString(row[types.ColumnSlug])
	rec.Username = types.RawString(row[types.ColumnUsername])
	rec.Status = types.RawString(row[types.ColumnStatus])

	stamp, _ := types.LookupFieldType(types.FieldDatetime)
	if t, ok := stamp.Hydrate(row[types.ColumnDateCreated]).Time(); ok {
		rec.DateCreated = t
	}
	if t, ok := stamp.Hydrate(row[types.ColumnDateChanged]).Time(); ok {
		rec.DateChanged = t
	}

	for _, f := range ct.MaterializedFields() {
		ft, _ := f.FieldType()
		raw, ok := row[f.Name]
		if !ok {
			rec.Set(f.Name, ft.Default(f.Default))
			continue
		}
		rec.Set(f.Name, ft.Hydrate(raw))
	}
	return rec
}
