package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/internal/dialect"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func testConfig() *types.Config {
	return &types.Config{
		Database:       types.DatabaseConfig{Driver: types.DriverSQLite, Prefix: "folio_"},
		ListingRecords: 100,
		Taxonomies: []types.Taxonomy{
			{Name: "Tags", Slug: "tags", SingularSlug: "tag", BehavesLike: types.BehavesLikeTags, Multiple: true},
			{Name: "Chapters", Slug: "chapters", SingularSlug: "chapter", BehavesLike: types.BehavesLikeGrouping,
				Options: []types.TaxonomyOption{{Slug: "intro", Name: "Introduction"}, {Slug: "main", Name: "Main"}}},
		},
		ContentTypes: []types.ContentType{
			{
				Name: "Entries", Slug: "entries", SingularSlug: "entry",
				Fields: []types.Field{
					{Name: "title", Type: types.FieldText},
					{Name: "body", Type: types.FieldHTML},
					{Name: "teaser", Type: types.FieldTextarea},
					{Name: "price", Type: types.FieldNumber},
					{Name: "published", Type: types.FieldDatetime},
					{Name: "image", Type: types.FieldImage},
				},
				Taxonomy:  []string{"tags"},
				Relations: []types.Relation{{Name: "pages", ContentType: "pages", Multiple: true}},
				Sort:      "-datecreated",
			},
			{
				Name: "Pages", Slug: "pages", SingularSlug: "page",
				Fields:         []types.Field{{Name: "title", Type: types.FieldText}},
				Taxonomy:       []string{"chapters"},
				ListingRecords: 20,
			},
		},
	}
}

func newBuilder() *Builder {
	return NewBuilder(testConfig(), dialect.SQLite{}, nil)
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		in   string
		want Shortcut
	}{
		{"entries", Shortcut{ContentType: "entries"}},
		{"entry/12", Shortcut{ContentType: "entry", ID: 12, Single: true}},
		{"page/about-us", Shortcut{ContentType: "page", Slug: "about-us", Single: true}},
		{"entry/latest/5", Shortcut{ContentType: "entry", Order: "-datecreated", Limit: 5}},
		{"entry/first/3", Shortcut{ContentType: "entry", Order: "datecreated", Limit: 3}},
		{"entries/random/2", Shortcut{ContentType: "entries", Random: true, Limit: 2}},
		{"entry/latest/x", Shortcut{ContentType: "entry", Slug: "latest/x", Single: true}},
		{"entry/0", Shortcut{ContentType: "entry", Slug: "0", Single: true}},
		{"entry/", Shortcut{ContentType: "entry"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseShortcut(tt.in))
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Expr
	}{
		{"5", Expr{Terms: []Term{{OpEq, "5"}}}},
		{"!5", Expr{Terms: []Term{{OpNe, "5"}}}},
		{"<=2020-01-01", Expr{Terms: []Term{{OpLe, "2020-01-01"}}}},
		{">=3", Expr{Terms: []Term{{OpGe, "3"}}}},
		{"<3", Expr{Terms: []Term{{OpLt, "3"}}}},
		{"> 3", Expr{Terms: []Term{{OpGt, "3"}}}},
		{"%foo%", Expr{Terms: []Term{{OpLike, "%foo%"}}}},
		{"foo%", Expr{Terms: []Term{{OpLike, "foo%"}}}},
		{"!%foo%", Expr{Terms: []Term{{OpNotLike, "%foo%"}}}},
		{"a || b", Expr{Or: true, Terms: []Term{{OpEq, "a"}, {OpEq, "b"}}}},
		{">1 && <9", Expr{Terms: []Term{{OpGt, "1"}, {OpLt, "9"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilter(tt.in))
		})
	}
}

func TestParseOrder(t *testing.T) {
	allowed := func(c string) bool { return c == "title" || c == "id" || c == "datecreated" }

	terms, dropped := ParseOrder("-datecreated", allowed)
	assert.Equal(t, []OrderTerm{{"datecreated", true}, {"id", true}}, terms)
	assert.Empty(t, dropped)

	terms, dropped = ParseOrder("title DESC, bogus, title asc; DROP TABLE x", allowed)
	assert.Equal(t, []OrderTerm{{"title", true}, {"id", true}}, terms)
	assert.Equal(t, []string{"bogus", "title asc; DROP TABLE x"}, dropped)

	terms, _ = ParseOrder("id", allowed)
	assert.Equal(t, []OrderTerm{{"id", false}}, terms)

	terms, dropped = ParseOrder("", allowed)
	assert.Empty(t, terms)
	assert.Empty(t, dropped)
}

func TestBuild(t *testing.T) {
	d := dialect.SQLite{}

	tests := []struct {
		name   string
		slug   string
		params types.Params
		check  func(t *testing.T, p *Plan)
	}{
		{
			name: "listing uses content type sort and page size",
			slug: "entries",
			check: func(t *testing.T, p *Plan) {
				assert.False(t, p.Single)
				assert.Equal(t, `SELECT * FROM "folio_entries" ORDER BY "datecreated" DESC, "id" DESC LIMIT 100`, p.SelectSQL(d))
				assert.Equal(t, `SELECT COUNT(*) AS total FROM "folio_entries"`, p.CountSQL(d))
			},
		},
		{
			name: "singular slug returns a single record",
			slug: "entry",
			check: func(t *testing.T, p *Plan) {
				assert.True(t, p.Single)
				assert.Equal(t, 1, p.Limit)
			},
		},
		{
			name: "id shortcut",
			slug: "entry/12",
			check: func(t *testing.T, p *Plan) {
				assert.True(t, p.Single)
				assert.Equal(t, []string{`"id" = ?`}, p.Where)
				assert.Equal(t, []any{int64(12)}, p.Args)
			},
		},
		{
			name: "slug shortcut",
			slug: "page/lorem-ipsum",
			check: func(t *testing.T, p *Plan) {
				assert.True(t, p.Single)
				assert.Equal(t, []string{`"slug" = ?`}, p.Where)
				assert.Equal(t, []any{"lorem-ipsum"}, p.Args)
				assert.Nil(t, p.Grouping, "single results are not grouped")
			},
		},
		{
			name: "latest shortcut",
			slug: "entries/latest/5",
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, `SELECT * FROM "folio_entries" ORDER BY "datecreated" DESC, "id" DESC LIMIT 5`, p.SelectSQL(d))
			},
		},
		{
			name: "latest shortcut on the singular slug lists",
			slug: "entry/latest/5",
			check: func(t *testing.T, p *Plan) {
				assert.False(t, p.Single)
				assert.Equal(t, 5, p.Limit)
				assert.Equal(t, []OrderTerm{{"datecreated", true}, {"id", true}}, p.Order)
			},
		},
		{
			name:   "returnsingle overrides a listing shortcut",
			slug:   "entry/latest/5",
			params: types.Params{ReturnSingle: true},
			check: func(t *testing.T, p *Plan) {
				assert.True(t, p.Single)
				assert.Equal(t, 1, p.Limit)
			},
		},
		{
			name: "random shortcut",
			slug: "entries/random/3",
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, `SELECT * FROM "folio_entries" ORDER BY RANDOM() LIMIT 3`, p.SelectSQL(d))
			},
		},
		{
			name:   "field filters are bound",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"price": "<=10", "title": "!%draft%", "bogus": "x"}},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []string{`"price" <= ?`, `"title" NOT LIKE ?`}, p.Where)
				assert.Equal(t, []any{10.0, "%draft%"}, p.Args)
			},
		},
		{
			name:   "or filter",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"status": "draft || timed"}},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []string{`("status" = ? OR "status" = ?)`}, p.Where)
				assert.Equal(t, []any{"draft", "timed"}, p.Args)
			},
		},
		{
			name:   "taxonomy filter uses a subquery",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"tag": "!go"}},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []string{
					`"id" NOT IN (SELECT "content_id" FROM "folio_taxonomy" WHERE "contenttype" = ? AND "taxonomytype" = ? AND "slug" = ?)`,
				}, p.Where)
				assert.Equal(t, []any{"entries", "tags", "go"}, p.Args)
			},
		},
		{
			name:   "relation filter uses a subquery",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"pages": "7"}},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []string{
					`"id" IN (SELECT "from_id" FROM "folio_relations" WHERE "from_contenttype" = ? AND "to_contenttype" = ? AND "to_id" = ?)`,
				}, p.Where)
				assert.Equal(t, []any{"entries", "pages", int64(7)}, p.Args)
			},
		},
		{
			name:   "undeclared taxonomy is ignored",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"chapters": "intro"}},
			check: func(t *testing.T, p *Plan) {
				assert.Empty(t, p.Where)
			},
		},
		{
			name:   "free-text filter covers text fields",
			slug:   "entries",
			params: types.Params{Filter: "lorem"},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []string{`("title" LIKE ? ESCAPE '!' OR "body" LIKE ? ESCAPE '!' OR "teaser" LIKE ? ESCAPE '!')`}, p.Where)
				assert.Equal(t, []any{"%lorem%", "%lorem%", "%lorem%"}, p.Args)
			},
		},
		{
			name:   "free-text wildcards match literally",
			slug:   "entries",
			params: types.Params{Filter: "50%_off!"},
			check: func(t *testing.T, p *Plan) {
				require.Len(t, p.Args, 3)
				assert.Equal(t, "%50!%!_off!!%", p.Args[0])
			},
		},
		{
			name:   "explicit order is validated",
			slug:   "entries",
			params: types.Params{Order: "title, password"},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, []OrderTerm{{"title", false}, {"id", false}}, p.Order)
			},
		},
		{
			name: "grouping applies without explicit order",
			slug: "pages",
			check: func(t *testing.T, p *Plan) {
				require.NotNil(t, p.Grouping)
				assert.Equal(t, "chapters", p.Grouping.Slug)
				assert.Equal(t, 20, p.Limit)
				assert.Equal(t, []OrderTerm{{"id", false}}, p.Order)
			},
		},
		{
			name:   "explicit order disables grouping",
			slug:   "pages",
			params: types.Params{Order: "-title"},
			check: func(t *testing.T, p *Plan) {
				assert.Nil(t, p.Grouping)
			},
		},
		{
			name:   "request order disables grouping",
			slug:   "pages",
			params: types.Params{Request: fakeRequest{order: "title"}},
			check: func(t *testing.T, p *Plan) {
				assert.Nil(t, p.Grouping)
				assert.Equal(t, "title", p.Order[0].Column)
			},
		},
		{
			name:   "page computes the offset",
			slug:   "entries",
			params: types.Params{Page: 2},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, 100, p.Offset)
				assert.Contains(t, p.SelectSQL(d), "LIMIT 100 OFFSET 100")
			},
		},
		{
			name:   "paging reads the page from the request",
			slug:   "entries",
			params: types.Params{Paging: true, Limit: 10, Request: fakeRequest{page: map[string]int{"entries": 3}}},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, 20, p.Offset)
			},
		},
		{
			name:   "explicit offset wins over page",
			slug:   "entries",
			params: types.Params{Page: 4, Offset: 7},
			check: func(t *testing.T, p *Plan) {
				assert.Equal(t, 7, p.Offset)
			},
		},
		{
			name:   "count shares the where clause",
			slug:   "entries",
			params: types.Params{Where: map[string]string{"price": ">3"}, Filter: "x"},
			check: func(t *testing.T, p *Plan) {
				where := ` WHERE "price" > ? AND ("title" LIKE ? ESCAPE '!' OR "body" LIKE ? ESCAPE '!' OR "teaser" LIKE ? ESCAPE '!')`
				assert.Contains(t, p.SelectSQL(d), where)
				assert.Equal(t, `SELECT COUNT(*) AS total FROM "folio_entries"`+where, p.CountSQL(d))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newBuilder().Build(tt.slug, tt.params)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestBuildUnknownContentType(t *testing.T) {
	_, err := newBuilder().Build("widgets/3", types.Params{})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, err, types.ErrUnknownContentType)
}

func TestSortByGroup(t *testing.T) {
	rec := func(id int64, g *types.Group) *types.Record {
		r := types.NewRecord("pages")
		r.ID, r.Group = id, g
		return r
	}
	records := []*types.Record{
		rec(1, &types.Group{Slug: "main", Order: 1}),
		rec(2, nil),
		rec(3, &types.Group{Slug: "intro", Order: 0}),
		rec(4, &types.Group{Slug: "main", Order: 1}),
		rec(5, &types.Group{Slug: "intro", Order: 0}),
	}
	SortByGroup(records)

	var ids []int64
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 5, 1, 4, 2}, ids)
}

type fakeRequest struct {
	order string
	page  map[string]int
}

func (f fakeRequest) Page(contentType string) (int, bool) {
	n, ok := f.page[contentType]
	return n, ok
}

func (f fakeRequest) Order() (string, bool) {
	return f.order, f.order != ""
}
