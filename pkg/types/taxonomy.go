package types

// Taxonomy behaviors.
const (
	BehavesLikeTags       = "tags"
	BehavesLikeCategories = "categories"
	BehavesLikeGrouping   = "grouping"
)

// TaxonomyOption is one declared value of a taxonomy.
type TaxonomyOption struct {
	Slug string
	Name string
}

// Taxonomy is a named classification axis attached to content records.
type Taxonomy struct {
	Name         string
	Slug         string
	SingularName string
	SingularSlug string
	BehavesLike  string
	Multiple     bool
	Options      []TaxonomyOption
}

// IsGrouping reports whether records are grouped by this taxonomy when no
// order is requested.
func (t *Taxonomy) IsGrouping() bool {
	return t.BehavesLike == BehavesLikeGrouping
}

// OptionIndex returns the position of slug in the declared options, or -1.
func (t *Taxonomy) OptionIndex(slug string) int {
	for i, o := range t.Options {
		if o.Slug == slug {
			return i
		}
	}
	return -1
}

// OptionName returns the display name of slug. Undeclared values name
// themselves.
func (t *Taxonomy) OptionName(slug string) string {
	if i := t.OptionIndex(slug); i >= 0 && t.Options[i].Name != "" {
		return t.Options[i].Name
	}
	return slug
}
