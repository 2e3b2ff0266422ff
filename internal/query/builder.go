package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/relations"
	"github.com/mesh-intelligence/folio/internal/taxonomy"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Plan is a fully resolved content query. The data and count statements
// share Where and Args.
type Plan struct {
	ContentType *types.ContentType
	Table       string
	Single      bool
	Where       []string
	Args        []any
	Order       []OrderTerm
	Random      bool
	Limit       int
	Offset      int
	// Grouping is set when records must be re-sorted by their grouping
	// taxonomy after loading.
	Grouping *types.Taxonomy
}

func (p *Plan) whereClause() string {
	if len(p.Where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.Where, " AND ")
}

// SelectSQL renders the bounded data statement.
func (p *Plan) SelectSQL(d types.Dialect) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(d.QuoteIdentifier(p.Table))
	sb.WriteString(p.whereClause())
	switch {
	case p.Random:
		sb.WriteString(" ORDER BY " + d.Random())
	case len(p.Order) > 0:
		sb.WriteString(" ORDER BY " + orderClause(d, p.Order))
	}
	sb.WriteString(" LIMIT " + strconv.Itoa(p.Limit))
	if p.Offset > 0 {
		sb.WriteString(" OFFSET " + strconv.Itoa(p.Offset))
	}
	return sb.String()
}

// CountSQL renders the statement counting every match of the plan.
func (p *Plan) CountSQL(d types.Dialect) string {
	return "SELECT COUNT(*) AS total FROM " + d.QuoteIdentifier(p.Table) + p.whereClause()
}

// Builder resolves query parameters against the content model.
type Builder struct {
	cfg     *types.Config
	dialect types.Dialect
	log     *zap.SugaredLogger
}

// NewBuilder returns a Builder rendering SQL for d. A nil log discards
// output.
func NewBuilder(cfg *types.Config, d types.Dialect, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{cfg: cfg, dialect: d, log: log}
}

// Build resolves slug, which may be a combined shortcut, and params into
// a Plan. An undeclared content type yields an error wrapping both
// ErrNotFound and ErrUnknownContentType.
func (b *Builder) Build(slug string, params types.Params) (*Plan, error) {
	sc := ParseShortcut(slug)
	ct, ok := b.cfg.ContentType(sc.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", types.ErrNotFound, types.ErrUnknownContentType, sc.ContentType)
	}

	p := &Plan{
		ContentType: ct,
		Table:       b.cfg.TableName(ct),
		Single:      sc.Single || params.ReturnSingle,
		Random:      sc.Random,
	}
	// A singular slug asks for one record unless a listing shortcut sets
	// the window.
	listing := sc.Limit > 0 || sc.Random
	if !listing && sc.ContentType == ct.SingularSlug && ct.SingularSlug != ct.Slug {
		p.Single = true
	}

	if sc.ID > 0 {
		p.add(b.dialect.QuoteIdentifier(types.ColumnID)+" = ?", sc.ID)
	}
	if sc.Slug != "" {
		p.add(b.dialect.QuoteIdentifier(types.ColumnSlug)+" = ?", sc.Slug)
	}
	b.filters(p, ct, params.Where)
	if params.Filter != "" {
		b.freeText(p, ct, params.Filter)
	}
	b.order(p, ct, sc, params)
	b.window(p, ct, sc, params)
	return p, nil
}

func (p *Plan) add(cond string, args ...any) {
	p.Where = append(p.Where, cond)
	p.Args = append(p.Args, args...)
}

// filters translates field filters in sorted key order so that the
// rendered SQL is deterministic.
func (b *Builder) filters(p *Plan, ct *types.ContentType, where map[string]string) {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := b.dialect
	for _, key := range keys {
		expr := ParseFilter(where[key])
		tax := b.taxonomyFilter(ct, key)
		switch {
		case ct.IsColumn(key):
			bind := columnBinder(ct, key)
			col := d.QuoteIdentifier(key)
			cond, args := expr.predicate(func(t Term) (string, []any) {
				c, a := t.Condition(col, bind)
				return c, []any{a}
			})
			p.add(cond, args...)

		case tax != nil:
			table := b.cfg.FixedTable(types.TableTaxonomy)
			cond, args := expr.predicate(func(t Term) (string, []any) {
				return taxonomy.Filter(d, table, ct.Slug, tax.Slug, t.Negated(), func(column string) (string, any) {
					return t.Positive().Condition(column, bindString)
				})
			})
			p.add(cond, args...)

		case hasRelation(ct, key):
			table := b.cfg.FixedTable(types.TableRelations)
			cond, args := expr.predicate(func(t Term) (string, []any) {
				return relations.Filter(d, table, ct.Slug, key, t.Negated(), func(column string) (string, any) {
					return t.Positive().Condition(column, bindID)
				})
			})
			p.add(cond, args...)

		default:
			b.log.Debugw("ignoring unknown filter key", "contenttype", ct.Slug, "key", key)
		}
	}
}

func (b *Builder) taxonomyFilter(ct *types.ContentType, key string) *types.Taxonomy {
	t, ok := b.cfg.Taxonomy(key)
	if !ok || !ct.HasTaxonomy(t.Slug) {
		return nil
	}
	return t
}

func hasRelation(ct *types.ContentType, key string) bool {
	_, ok := ct.Relation(key)
	return ok
}

func (b *Builder) freeText(p *Plan, ct *types.ContentType, filter string) {
	fields := ct.SearchableFields()
	if len(fields) == 0 {
		b.log.Debugw("free-text filter has no searchable fields", "contenttype", ct.Slug)
		return
	}
	conds := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := "%" + likeEscaper.Replace(filter) + "%"
	for i, f := range fields {
		conds[i] = b.dialect.QuoteIdentifier(f.Name) + " LIKE ? ESCAPE '" + likeEscape + "'"
		args[i] = pattern
	}
	p.add("("+strings.Join(conds, " OR ")+")", args...)
}

// likeEscape marks the next character of a free-text pattern as literal.
// Backslash is avoided because MySQL and PostgreSQL read it differently
// inside string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// order applies the first non-empty of: shortcut order, explicit order,
// request order, content type sort. Grouping applies only when neither an
// explicit nor a request order was given.
func (b *Builder) order(p *Plan, ct *types.ContentType, sc Shortcut, params types.Params) {
	if p.Random {
		return
	}
	requested := sc.Order
	if requested == "" {
		requested = params.Order
	}
	if requested == "" && params.Request != nil {
		if o, ok := params.Request.Order(); ok {
			requested = o
		}
	}
	source := requested
	if source == "" {
		source = ct.Sort
	}

	terms, dropped := ParseOrder(source, ct.IsColumn)
	if len(dropped) > 0 {
		b.log.Debugw("dropping order terms", "contenttype", ct.Slug, "terms", dropped)
	}
	if len(terms) == 0 {
		terms = []OrderTerm{{Column: types.ColumnID}}
	}
	p.Order = terms

	if requested == "" && !p.Single {
		if t, ok := b.cfg.GroupingTaxonomy(ct); ok {
			p.Grouping = t
		}
	}
}

func (b *Builder) window(p *Plan, ct *types.ContentType, sc Shortcut, params types.Params) {
	if p.Single {
		p.Limit = 1
		return
	}
	switch {
	case sc.Limit > 0:
		p.Limit = sc.Limit
	case params.Limit > 0:
		p.Limit = params.Limit
	default:
		p.Limit = b.cfg.PageSize(ct)
	}

	page := params.Page
	if page <= 0 && params.Paging && params.Request != nil {
		if n, ok := params.Request.Page(ct.Slug); ok {
			page = n
		}
	}
	if page <= 0 {
		page = 1
	}
	if params.Offset > 0 {
		p.Offset = params.Offset
	} else {
		p.Offset = (page - 1) * p.Limit
	}
}

// columnBinder returns the operand binder for a base column or field.
func columnBinder(ct *types.ContentType, column string) func(string) any {
	if column == types.ColumnID {
		return bindID
	}
	if f, ok := ct.Field(column); ok && !types.IsBaseColumn(column) {
		if ft, ok := f.FieldType(); ok {
			return ft.Bind
		}
	}
	return bindString
}

func bindString(s string) any { return s }

func bindID(s string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n
	}
	return s
}
