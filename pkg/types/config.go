package types

import (
	"fmt"
	"regexp"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Defaults applied by the config loader.
const (
	DefaultPrefix         = "folio_"
	DefaultDatabaseName   = "folio"
	DefaultListingRecords = 100
)

// DatabaseConfig selects and parameterizes the database gateway.
type DatabaseConfig struct {
	Driver string
	// DatabaseName is the SQLite file name (without extension) in DataDir.
	DatabaseName string
	// DSN is the connection string for mysql and postgres.
	DSN     string
	DataDir string
	Prefix  string
}

// Config is the loaded, validated site configuration. It is immutable once
// loaded.
type Config struct {
	Database       DatabaseConfig
	ContentTypes   []ContentType
	Taxonomies     []Taxonomy
	ListingRecords int
	// CascadeDelete removes taxonomy and relation rows together with a
	// deleted record.
	CascadeDelete bool
}

var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverMySQL:    true,
	DriverPostgres: true,
}

// identifierPattern restricts table prefixes, slugs and field names to
// characters that never need quoting.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsIdentifier reports whether s is a safe table or column name component.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Validate checks that the Config is well-formed. Errors wrap the sentinel
// errors of this package.
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Database.Driver] {
		return fmt.Errorf("%w: %q", ErrDriverUnknown, c.Database.Driver)
	}
	if c.Database.Prefix != "" && !IsIdentifier(c.Database.Prefix) {
		return fmt.Errorf("%w: prefix %q", ErrInvalidIdentifier, c.Database.Prefix)
	}
	if c.ListingRecords < 0 {
		return ErrInvalidListingSize
	}

	taxonomies := make(map[string]*Taxonomy, len(c.Taxonomies))
	for i := range c.Taxonomies {
		t := &c.Taxonomies[i]
		if !IsIdentifier(t.Slug) {
			return fmt.Errorf("%w: taxonomy %q", ErrInvalidIdentifier, t.Slug)
		}
		if _, dup := taxonomies[t.Slug]; dup {
			return fmt.Errorf("%w: taxonomy %q", ErrDuplicateSlug, t.Slug)
		}
		taxonomies[t.Slug] = t
	}

	slugs := make(map[string]bool)
	for i := range c.ContentTypes {
		ct := &c.ContentTypes[i]
		if !IsIdentifier(ct.Slug) {
			return fmt.Errorf("%w: content type %q", ErrInvalidIdentifier, ct.Slug)
		}
		if systemTables[ct.Slug] {
			return fmt.Errorf("%w: content type %q", ErrReservedSlug, ct.Slug)
		}
		if slugs[ct.Slug] {
			return fmt.Errorf("%w: content type %q", ErrDuplicateSlug, ct.Slug)
		}
		slugs[ct.Slug] = true
		if ct.ListingRecords < 0 {
			return fmt.Errorf("content type %q: %w", ct.Slug, ErrInvalidListingSize)
		}
		for _, f := range ct.Fields {
			if !IsIdentifier(f.Name) {
				return fmt.Errorf("%w: field %q of %q", ErrInvalidIdentifier, f.Name, ct.Slug)
			}
		}
		grouping := 0
		for _, tax := range ct.Taxonomy {
			t, ok := taxonomies[tax]
			if !ok {
				return fmt.Errorf("%w: %q used by %q", ErrUnknownTaxonomy, tax, ct.Slug)
			}
			if t.IsGrouping() {
				grouping++
			}
		}
		if grouping > 1 {
			return fmt.Errorf("%w: %q", ErrInvalidGrouping, ct.Slug)
		}
	}

	for i := range c.ContentTypes {
		ct := &c.ContentTypes[i]
		for _, r := range ct.Relations {
			if !IsIdentifier(r.Name) {
				return fmt.Errorf("%w: relation %q of %q", ErrInvalidIdentifier, r.Name, ct.Slug)
			}
			if !slugs[r.ContentType] {
				return fmt.Errorf("%w: %q of %q", ErrUnknownRelation, r.ContentType, ct.Slug)
			}
		}
	}
	return nil
}

// ContentType resolves a content type by slug or singular slug.
func (c *Config) ContentType(slug string) (*ContentType, bool) {
	for i := range c.ContentTypes {
		if c.ContentTypes[i].Slug == slug {
			return &c.ContentTypes[i], true
		}
	}
	for i := range c.ContentTypes {
		if c.ContentTypes[i].SingularSlug == slug {
			return &c.ContentTypes[i], true
		}
	}
	return nil, false
}

// Taxonomy resolves a taxonomy by slug or singular slug.
func (c *Config) Taxonomy(slug string) (*Taxonomy, bool) {
	for i := range c.Taxonomies {
		if c.Taxonomies[i].Slug == slug || c.Taxonomies[i].SingularSlug == slug {
			return &c.Taxonomies[i], true
		}
	}
	return nil, false
}

// GroupingTaxonomy returns the grouping taxonomy used by ct, if any.
func (c *Config) GroupingTaxonomy(ct *ContentType) (*Taxonomy, bool) {
	for _, slug := range ct.Taxonomy {
		if t, ok := c.Taxonomy(slug); ok && t.IsGrouping() {
			return t, true
		}
	}
	return nil, false
}

// TableName returns the prefixed name of a content type's table.
func (c *Config) TableName(ct *ContentType) string {
	return c.Database.Prefix + ct.Slug
}

// FixedTable returns the prefixed name of a fixed system table.
func (c *Config) FixedTable(name string) string {
	return c.Database.Prefix + name
}

// PageSize returns the default page size for ct.
func (c *Config) PageSize(ct *ContentType) int {
	if ct != nil && ct.ListingRecords > 0 {
		return ct.ListingRecords
	}
	if c.ListingRecords > 0 {
		return c.ListingRecords
	}
	return DefaultListingRecords
}

// Fixed system table names, without prefix.
const (
	TableUsers      = "users"
	TableTaxonomy   = "taxonomy"
	TableRelations  = "relations"
	TableSchemaLock = "schema_lock"
)

// systemTables share the prefix with content tables, so no content type
// may take their names.
var systemTables = map[string]bool{
	TableUsers:      true,
	TableTaxonomy:   true,
	TableRelations:  true,
	TableSchemaLock: true,
}
