package types

import (
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Driver: DriverSQLite, Prefix: "folio_"},
		Taxonomies: []Taxonomy{
			{Name: "Tags", Slug: "tags", BehavesLike: BehavesLikeTags},
			{Name: "Chapters", Slug: "chapters", BehavesLike: BehavesLikeGrouping},
		},
		ContentTypes: []ContentType{
			{Name: "Pages", Slug: "pages", SingularSlug: "page", Taxonomy: []string{"chapters"}},
			{
				Name: "Entries", Slug: "entries", SingularSlug: "entry",
				Fields:    []Field{{Name: "title", Type: FieldText}},
				Taxonomy:  []string{"tags"},
				Relations: []Relation{{Name: "pages", ContentType: "pages"}},
			},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "empty driver returns ErrDriverEmpty",
			mutate:  func(c *Config) { c.Database.Driver = "" },
			wantErr: ErrDriverEmpty,
		},
		{
			name:    "unknown driver returns ErrDriverUnknown",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: ErrDriverUnknown,
		},
		{
			name:    "quoted prefix returns ErrInvalidIdentifier",
			mutate:  func(c *Config) { c.Database.Prefix = `x"; DROP` },
			wantErr: ErrInvalidIdentifier,
		},
		{
			name:    "field name with spaces returns ErrInvalidIdentifier",
			mutate:  func(c *Config) { c.ContentTypes[1].Fields[0].Name = "my title" },
			wantErr: ErrInvalidIdentifier,
		},
		{
			name:    "duplicate content type slug returns ErrDuplicateSlug",
			mutate:  func(c *Config) { c.ContentTypes[1].Slug = "pages" },
			wantErr: ErrDuplicateSlug,
		},
		{
			name:    "content type named after the taxonomy table returns ErrReservedSlug",
			mutate:  func(c *Config) { c.ContentTypes[0].Slug = TableTaxonomy },
			wantErr: ErrReservedSlug,
		},
		{
			name:    "content type named after the lock table returns ErrReservedSlug",
			mutate:  func(c *Config) { c.ContentTypes[1].Slug = TableSchemaLock },
			wantErr: ErrReservedSlug,
		},
		{
			name:    "undeclared taxonomy returns ErrUnknownTaxonomy",
			mutate:  func(c *Config) { c.ContentTypes[0].Taxonomy = []string{"colors"} },
			wantErr: ErrUnknownTaxonomy,
		},
		{
			name:    "relation to undeclared type returns ErrUnknownRelation",
			mutate:  func(c *Config) { c.ContentTypes[1].Relations[0].ContentType = "books" },
			wantErr: ErrUnknownRelation,
		},
		{
			name: "two grouping taxonomies return ErrInvalidGrouping",
			mutate: func(c *Config) {
				c.Taxonomies = append(c.Taxonomies, Taxonomy{Slug: "sections", BehavesLike: BehavesLikeGrouping})
				c.ContentTypes[0].Taxonomy = []string{"chapters", "sections"}
			},
			wantErr: ErrInvalidGrouping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigLookups(t *testing.T) {
	cfg := validConfig()

	ct, ok := cfg.ContentType("entry")
	if !ok || ct.Slug != "entries" {
		t.Fatalf("ContentType(entry) = %v, %v", ct, ok)
	}
	if got := cfg.TableName(ct); got != "folio_entries" {
		t.Errorf("TableName = %q", got)
	}
	if _, ok := cfg.ContentType("books"); ok {
		t.Errorf("ContentType(books) should not resolve")
	}

	pages, _ := cfg.ContentType("pages")
	g, ok := cfg.GroupingTaxonomy(pages)
	if !ok || g.Slug != "chapters" {
		t.Errorf("GroupingTaxonomy(pages) = %v, %v", g, ok)
	}
	if _, ok := cfg.GroupingTaxonomy(ct); ok {
		t.Errorf("entries has no grouping taxonomy")
	}

	if got := cfg.PageSize(ct); got != DefaultListingRecords {
		t.Errorf("PageSize = %d, want %d", got, DefaultListingRecords)
	}
	ct.ListingRecords = 10
	if got := cfg.PageSize(ct); got != 10 {
		t.Errorf("PageSize with override = %d, want 10", got)
	}
}

func TestContentTypeColumns(t *testing.T) {
	ct := ContentType{
		Slug: "entries",
		Fields: []Field{
			{Name: "title", Type: FieldText},
			{Name: "slug", Type: FieldSlug},
			{Name: "sep", Type: FieldDivider},
			{Name: "body", Type: FieldHTML},
			{Name: "price", Type: FieldNumber},
			{Name: "links", Type: FieldRelation},
			{Name: "mystery", Type: "geolocation"},
		},
	}
	want := []string{"id", "slug", "datecreated", "datechanged", "username", "status", "title", "body", "price"}
	got := ct.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Columns() = %v, want %v", got, want)
		}
	}
	searchable := ct.SearchableFields()
	if len(searchable) != 2 || searchable[0].Name != "title" || searchable[1].Name != "body" {
		t.Errorf("SearchableFields() = %v", searchable)
	}
	if ct.IsColumn("sep") || ct.IsColumn("mystery") || !ct.IsColumn("status") {
		t.Errorf("IsColumn gave wrong answers")
	}
}
