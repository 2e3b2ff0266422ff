package types

import "time"

// Record statuses.
const (
	StatusPublished   = "published"
	StatusDraft       = "draft"
	StatusTimed       = "timed"
	StatusDepublished = "depublished"
)

var validStatuses = map[string]bool{
	StatusPublished:   true,
	StatusDraft:       true,
	StatusTimed:       true,
	StatusDepublished: true,
}

// IsValidStatus reports whether s is a recognized record status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// Group is the grouping taxonomy value of a record.
type Group struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Record is one content record. The caller owns a returned Record; storage
// keeps no reference to it.
type Record struct {
	ID          int64            `json:"id"`
	ContentType string           `json:"contenttype"`
	Slug        string           `json:"slug"`
	DateCreated time.Time        `json:"datecreated"`
	DateChanged time.Time        `json:"datechanged"`
	Username    string           `json:"username"`
	Status      string           `json:"status"`
	Values      map[string]Value `json:"values"`
	// Taxonomy maps taxonomy type to assigned slugs. A nil map leaves stored
	// assignments untouched on save.
	Taxonomy map[string][]string `json:"taxonomy,omitempty"`
	// Relations maps relation field name to target record IDs. A nil map
	// leaves stored links untouched on save.
	Relations map[string][]int64 `json:"relations,omitempty"`
	Group     *Group             `json:"group,omitempty"`
}

// NewRecord returns an empty record of the given content type.
func NewRecord(contentType string) *Record {
	return &Record{
		ContentType: contentType,
		Values:      make(map[string]Value),
	}
}

// Get returns the value of a declared field.
func (r *Record) Get(field string) Value {
	if r.Values == nil {
		return NullValue()
	}
	return r.Values[field]
}

// Set assigns the value of a declared field.
func (r *Record) Set(field string, v Value) {
	if r.Values == nil {
		r.Values = make(map[string]Value)
	}
	r.Values[field] = v
}

// SetTaxonomy replaces the assignments of one taxonomy type.
func (r *Record) SetTaxonomy(taxonomyType string, slugs ...string) {
	if r.Taxonomy == nil {
		r.Taxonomy = make(map[string][]string)
	}
	r.Taxonomy[taxonomyType] = append([]string(nil), slugs...)
}

// SetRelations replaces the targets of one relation field.
func (r *Record) SetRelations(field string, ids ...int64) {
	if r.Relations == nil {
		r.Relations = make(map[string][]int64)
	}
	r.Relations[field] = append([]int64(nil), ids...)
}
