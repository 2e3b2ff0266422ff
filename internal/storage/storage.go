// Package storage saves, patches, deletes and queries content records on
// top of the query builder and the taxonomy and relation synchronizers.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/relations"
	"github.com/mesh-intelligence/folio/internal/slug"
	"github.com/mesh-intelligence/folio/internal/taxonomy"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Storage is the content record lifecycle over a database gateway. It is
// safe for concurrent use when the gateway is; each call pins its own
// connection when the gateway supports pinning.
type Storage struct {
	gw  types.Gateway
	cfg *types.Config
	log *zap.SugaredLogger
	now func() time.Time
}

// New returns a Storage for cfg over gw. A nil log discards output.
func New(gw types.Gateway, cfg *types.Config, log *zap.SugaredLogger) *Storage {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Storage{gw: gw, cfg: cfg, log: log, now: time.Now}
}

// session pins a connection for one logical operation. The returned
// release func is always non-nil.
func (s *Storage) session(ctx context.Context) (types.Gateway, func(), error) {
	p, ok := s.gw.(types.Pinner)
	if !ok {
		return s.gw, func() {}, nil
	}
	sess, err := p.Pin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pinning connection: %w", err)
	}
	return sess, func() {
		if err := sess.Close(); err != nil {
			s.log.Warnw("closing session", "error", err)
		}
	}, nil
}

func (s *Storage) contentType(name string) (*types.ContentType, error) {
	ct, ok := s.cfg.ContentType(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", types.ErrNotFound, types.ErrUnknownContentType, name)
	}
	return ct, nil
}

// Save inserts rec when it has no id and updates it otherwise, then syncs
// its taxonomy and relations. contentType overrides rec.ContentType when
// set. On success rec carries the stored id, slug, status, timestamps and
// normalized values; the returned id equals rec.ID.
//
// On update only the values present in rec are written and an empty slug,
// status or username keeps the stored one. A nil Taxonomy or Relations map
// leaves the stored assignments untouched.
func (s *Storage) Save(ctx context.Context, rec *types.Record, contentType string) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("saving record: %w", types.ErrInvalidField)
	}
	if contentType == "" {
		contentType = rec.ContentType
	}
	if contentType == "" {
		return 0, types.ErrNoContentType
	}
	ct, err := s.contentType(contentType)
	if err != nil {
		return 0, err
	}
	if rec.ID < 0 {
		return 0, types.ErrInvalidID
	}

	values := s.whitelist(ct, normalizeDates(ct, rec.Values))
	recSlug := strings.TrimSpace(rec.Slug)
	if v, ok := values[types.ColumnSlug]; ok {
		if recSlug == "" {
			recSlug = v.Str()
		}
		delete(values, types.ColumnSlug)
	}
	insert := rec.ID == 0
	if recSlug == "" && insert {
		recSlug = deriveSlug(ct, values)
	}
	recSlug = slug.Make(recSlug)

	status := strings.TrimSpace(rec.Status)
	if status == "" && insert {
		status = ct.DefaultStatus
		if status == "" {
			status = types.StatusDraft
		}
	}
	if status != "" && !types.IsValidStatus(status) {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}

	gw, release, err := s.session(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	now := s.now().UTC().Truncate(time.Second)
	stamp := now.Format(types.TimestampLayout)
	username := strings.TrimSpace(rec.Username)
	cols := map[string]any{types.ColumnDateChanged: stamp}
	// An update leaves empty base values as stored.
	for col, v := range map[string]string{
		types.ColumnSlug:     recSlug,
		types.ColumnStatus:   status,
		types.ColumnUsername: username,
	} {
		if v != "" || insert {
			cols[col] = v
		}
	}
	for _, f := range ct.MaterializedFields() {
		ft, _ := f.FieldType()
		v, ok := values[f.Name]
		if !ok {
			if !insert {
				continue
			}
			v = ft.Default(f.Default)
			values[f.Name] = v
		}
		cols[f.Name] = ft.Persist(v)
	}

	table := s.cfg.TableName(ct)
	if insert {
		cols[types.ColumnDateCreated] = stamp
		id, err := gw.Insert(ctx, table, cols)
		if err != nil {
			return 0, fmt.Errorf("inserting %s record: %w", ct.Slug, err)
		}
		rec.ID = id
		rec.DateCreated = now
		s.log.Debugw("inserted record", "contenttype", ct.Slug, "id", id)
	} else {
		if ok, err := exists(ctx, gw, table, rec.ID); err != nil {
			return 0, err
		} else if !ok {
			return 0, fmt.Errorf("%s/%d: %w", ct.Slug, rec.ID, types.ErrNotFound)
		}
		if _, err := gw.Update(ctx, table, cols, map[string]any{types.ColumnID: rec.ID}); err != nil {
			return 0, fmt.Errorf("updating %s/%d: %w", ct.Slug, rec.ID, err)
		}
		s.log.Debugw("updated record", "contenttype", ct.Slug, "id", rec.ID)
	}

	rec.ContentType = ct.Slug
	rec.DateChanged = now
	if username != "" {
		rec.Username = username
	}
	if recSlug != "" {
		rec.Slug = recSlug
	}
	if status != "" {
		rec.Status = status
	}
	rec.Values = values

	if rec.Taxonomy != nil {
		if err := taxonomy.New(gw, s.cfg, s.log).Sync(ctx, rec.ID, ct, rec.Taxonomy); err != nil {
			return rec.ID, err
		}
	}
	if rec.Relations != nil {
		if err := relations.New(gw, s.cfg, s.log).Sync(ctx, rec.ID, ct, rec.Relations); err != nil {
			return rec.ID, err
		}
	}
	return rec.ID, nil
}

// whitelist keeps the values of materialized fields and the slug, trimming
// strings. Every other key is dropped.
func (s *Storage) whitelist(ct *types.ContentType, in map[string]types.Value) map[string]types.Value {
	out := make(map[string]types.Value, len(in))
	for k, v := range in {
		if k != types.ColumnSlug && (types.IsBaseColumn(k) || !ct.IsColumn(k)) {
			s.log.Debugw("dropping value outside whitelist", "contenttype", ct.Slug, "key", k)
			continue
		}
		if v.Kind() == types.KindString {
			v = types.StringValue(strings.TrimSpace(v.Str()))
		}
		out[k] = v
	}
	return out
}

// deriveSlug builds a slug from the fields named by the content type's
// slug field.
func deriveSlug(ct *types.ContentType, values map[string]types.Value) string {
	for _, f := range ct.Fields {
		if f.Type != types.FieldSlug || len(f.Uses) == 0 {
			continue
		}
		parts := make([]string, 0, len(f.Uses))
		for _, src := range f.Uses {
			if v := strings.TrimSpace(values[src].Str()); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// normalizeDates folds "X-date" and "X-time" inputs into the timestamp
// field X. A pair that does not parse yields an empty value.
func normalizeDates(ct *types.ContentType, in map[string]types.Value) map[string]types.Value {
	out := make(map[string]types.Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, f := range ct.Fields {
		if f.Type != types.FieldDate && f.Type != types.FieldDatetime {
			continue
		}
		d, hasDate := out[f.Name+"-date"]
		tm, hasTime := out[f.Name+"-time"]
		if !hasDate && !hasTime {
			continue
		}
		delete(out, f.Name+"-date")
		delete(out, f.Name+"-time")

		combined := strings.TrimSpace(d.Str())
		if t := strings.TrimSpace(tm.Str()); t != "" {
			combined += " " + t
		}
		if ts, ok := types.ParseTimestamp(combined); ok {
			out[f.Name] = types.TimeValue(ts)
		} else {
			out[f.Name] = types.NullValue()
		}
	}
	return out
}

// UpdateSingleValue writes one column of one record and refreshes its
// datechanged. The column must be a materialized field or one of slug,
// status, username and datecreated.
func (s *Storage) UpdateSingleValue(ctx context.Context, contentType string, id int64, field string, value types.Value) error {
	ct, err := s.contentType(contentType)
	if err != nil {
		return err
	}
	if id <= 0 {
		return types.ErrInvalidID
	}

	var bound any
	switch field {
	case types.ColumnID, types.ColumnDateChanged:
		return fmt.Errorf("%w: %q cannot be patched", types.ErrInvalidField, field)
	case types.ColumnSlug:
		bound = slug.Make(value.Str())
	case types.ColumnUsername:
		bound = strings.TrimSpace(value.Str())
	case types.ColumnStatus:
		st := strings.TrimSpace(value.Str())
		if !types.IsValidStatus(st) {
			return fmt.Errorf("%w: %q", types.ErrInvalidStatus, st)
		}
		bound = st
	case types.ColumnDateCreated:
		ft, _ := types.LookupFieldType(types.FieldDatetime)
		bound = ft.Persist(timeValue(value))
	default:
		f, ok := ct.Field(field)
		if !ok || !ct.IsColumn(field) {
			return fmt.Errorf("%w: %q of %s", types.ErrInvalidField, field, ct.Slug)
		}
		ft, _ := f.FieldType()
		if value.Kind() == types.KindString {
			value = types.StringValue(strings.TrimSpace(value.Str()))
		}
		if ft.Value == types.KindTime {
			value = timeValue(value)
		}
		bound = ft.Persist(value)
	}

	gw, release, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer release()

	table := s.cfg.TableName(ct)
	if ok, err := exists(ctx, gw, table, id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%s/%d: %w", ct.Slug, id, types.ErrNotFound)
	}

	cols := map[string]any{
		field:                   bound,
		types.ColumnDateChanged: s.now().UTC().Format(types.TimestampLayout),
	}
	if _, err := gw.Update(ctx, table, cols, map[string]any{types.ColumnID: id}); err != nil {
		return fmt.Errorf("patching %s/%d %s: %w", ct.Slug, id, field, err)
	}
	return nil
}

// timeValue reads a time from a value given either as a time or as text.
func timeValue(v types.Value) types.Value {
	if v.Kind() == types.KindTime {
		return v
	}
	if t, ok := types.ParseTimestamp(v.Str()); ok {
		return types.TimeValue(t)
	}
	return types.NullValue()
}

func exists(ctx context.Context, gw types.Gateway, table string, id int64) (bool, error) {
	d := gw.Dialect()
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		d.QuoteIdentifier(types.ColumnID), d.QuoteIdentifier(table), d.QuoteIdentifier(types.ColumnID))
	rows, err := gw.Query(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("looking up %s/%d: %w", table, id, err)
	}
	return len(rows) > 0, nil
}

// Delete removes the base row of one record. Taxonomy and relation rows
// are removed too only when the configuration enables cascade_delete.
func (s *Storage) Delete(ctx context.Context, contentType string, id int64) error {
	ct, err := s.contentType(contentType)
	if err != nil {
		return err
	}
	if id <= 0 {
		return types.ErrInvalidID
	}

	gw, release, err := s.session(ctx)
	if err != nil {
		return err
	}
	defer release()

	n, err := gw.Delete(ctx, s.cfg.TableName(ct), map[string]any{types.ColumnID: id})
	if err != nil {
		return fmt.Errorf("deleting %s/%d: %w", ct.Slug, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%d: %w", ct.Slug, id, types.ErrNotFound)
	}
	if !s.cfg.CascadeDelete {
		return nil
	}
	if _, err := taxonomy.New(gw, s.cfg, s.log).DeleteFor(ctx, ct.Slug, id); err != nil {
		return err
	}
	if _, err := relations.New(gw, s.cfg, s.log).DeleteFor(ctx, ct.Slug, id); err != nil {
		return err
	}
	return nil
}

// EmptyRecord returns an unsaved record of contentType with every field at
// its declared default.
func (s *Storage) EmptyRecord(contentType string) (*types.Record, error) {
	ct, err := s.contentType(contentType)
	if err != nil {
		return nil, err
	}
	rec := types.NewRecord(ct.Slug)
	rec.Status = ct.DefaultStatus
	if rec.Status == "" {
		rec.Status = types.StatusDraft
	}
	for _, f := range ct.MaterializedFields() {
		ft, _ := f.FieldType()
		rec.Set(f.Name, ft.Default(f.Default))
	}
	rec.Taxonomy = make(map[string][]string, len(ct.Taxonomy))
	for _, t := range ct.Taxonomy {
		rec.Taxonomy[t] = []string{}
	}
	rec.Relations = make(map[string][]int64, len(ct.Relations))
	for _, r := range ct.Relations {
		rec.Relations[r.Name] = []int64{}
	}
	return rec, nil
}

// Get returns one record by id, or an error wrapping ErrNotFound.
func (s *Storage) Get(ctx context.Context, contentType string, id int64) (*types.Record, error) {
	res, err := s.Query(ctx, fmt.Sprintf("%s/%d", contentType, id), types.Params{})
	if err != nil {
		return nil, err
	}
	if res.Record == nil {
		return nil, fmt.Errorf("%s/%d: %w", contentType, id, types.ErrNotFound)
	}
	return res.Record, nil
}
