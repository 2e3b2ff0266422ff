package types

// Field is one declared field of a content type.
type Field struct {
	Name    string
	Type    string
	Default string
	Label   string
	// Uses names the source fields a slug field is derived from.
	Uses []string
	// ContentType is the target content type of a relation field.
	ContentType string
}

// FieldType returns the registry descriptor for the field's declared type.
func (f Field) FieldType() (FieldType, bool) {
	return LookupFieldType(f.Type)
}

// Relation declares a many-to-many link from a content type to records of
// another content type. Name is the relation field name stored in the
// to_contenttype column of the relation table.
type Relation struct {
	Name        string
	ContentType string
	Label       string
	Multiple    bool
}

// ContentType is a declared entity kind with its own table.
type ContentType struct {
	Name           string
	SingularName   string
	Slug           string
	SingularSlug   string
	Fields         []Field
	Taxonomy       []string
	Relations      []Relation
	Sort           string
	DefaultStatus  string
	ListingRecords int
}

// Field returns the declared field with the given name.
func (ct *ContentType) Field(name string) (Field, bool) {
	for _, f := range ct.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Relation returns the declared relation with the given field name.
func (ct *ContentType) Relation(name string) (Relation, bool) {
	for _, r := range ct.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// HasTaxonomy reports whether the content type uses the taxonomy type.
func (ct *ContentType) HasTaxonomy(slug string) bool {
	for _, t := range ct.Taxonomy {
		if t == slug {
			return true
		}
	}
	return false
}

// MaterializedFields returns the declared fields that are columns of the
// content table, in declaration order. Base columns are excluded.
func (ct *ContentType) MaterializedFields() []Field {
	var out []Field
	for _, f := range ct.Fields {
		if IsBaseColumn(f.Name) {
			continue
		}
		ft, ok := f.FieldType()
		if !ok || !ft.Materialized() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SearchableFields returns the materialized fields included in the
// free-text filter.
func (ct *ContentType) SearchableFields() []Field {
	var out []Field
	for _, f := range ct.MaterializedFields() {
		if ft, _ := f.FieldType(); ft.Searchable {
			out = append(out, f)
		}
	}
	return out
}

// Columns returns the allow-list of column names for this content type:
// base columns followed by materialized fields.
func (ct *ContentType) Columns() []string {
	cols := append([]string(nil), BaseColumns...)
	for _, f := range ct.MaterializedFields() {
		cols = append(cols, f.Name)
	}
	return cols
}

// IsColumn reports whether name is a base column or a materialized field.
func (ct *ContentType) IsColumn(name string) bool {
	if IsBaseColumn(name) {
		return true
	}
	f, ok := ct.Field(name)
	if !ok {
		return false
	}
	ft, ok := f.FieldType()
	return ok && ft.Materialized()
}

// Base columns present on every content table.
const (
	ColumnID          = "id"
	ColumnSlug        = "slug"
	ColumnDateCreated = "datecreated"
	ColumnDateChanged = "datechanged"
	ColumnUsername    = "username"
	ColumnStatus      = "status"
)

// BaseColumns lists the base columns in table order.
var BaseColumns = []string{
	ColumnID,
	ColumnSlug,
	ColumnDateCreated,
	ColumnDateChanged,
	ColumnUsername,
	ColumnStatus,
}

// IsBaseColumn reports whether name is one of BaseColumns.
func IsBaseColumn(name string) bool {
	for _, c := range BaseColumns {
		if c == name {
			return true
		}
	}
	return false
}
