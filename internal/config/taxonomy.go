package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/folio/internal/slug"
	"github.com/mesh-intelligence/folio/pkg/types"
)

type taxonomyDoc struct {
	Name         string    `yaml:"name"`
	SingularName string    `yaml:"singular_name"`
	Slug         string    `yaml:"slug"`
	SingularSlug string    `yaml:"singular_slug"`
	BehavesLike  string    `yaml:"behaves_like"`
	Multiple     *bool     `yaml:"multiple"`
	Options      yaml.Node `yaml:"options"`
}

func loadTaxonomies(path string) ([]types.Taxonomy, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	taxonomies, err := ParseTaxonomies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TaxonomyFile, err)
	}
	return taxonomies, nil
}

// ParseTaxonomies decodes a taxonomy.yml document. Options may be a list
// of names, slugified into slugs, or a mapping of slug to name; either way
// their order is kept since it orders groups.
func ParseTaxonomies(data []byte) ([]types.Taxonomy, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	entries, err := mappingEntries(&root)
	if err != nil {
		return nil, err
	}

	out := make([]types.Taxonomy, 0, len(entries))
	for _, e := range entries {
		var doc taxonomyDoc
		if err := e.value.Decode(&doc); err != nil {
			return nil, fmt.Errorf("taxonomy %q: %w", e.key, err)
		}
		t, err := doc.taxonomy(e.key)
		if err != nil {
			return nil, fmt.Errorf("taxonomy %q: %w", e.key, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (doc *taxonomyDoc) taxonomy(key string) (types.Taxonomy, error) {
	t := types.Taxonomy{
		Name:         firstNonEmpty(doc.Name, key),
		SingularName: doc.SingularName,
		Slug:         slug.Identifier(firstNonEmpty(doc.Slug, key)),
		BehavesLike:  strings.ToLower(firstNonEmpty(doc.BehavesLike, types.BehavesLikeTags)),
	}
	t.SingularSlug = slug.Identifier(firstNonEmpty(doc.SingularSlug, doc.SingularName))
	if t.SingularSlug == "" {
		t.SingularSlug = t.Slug
	}
	if t.SingularName == "" {
		t.SingularName = t.Name
	}

	switch t.BehavesLike {
	case types.BehavesLikeTags, types.BehavesLikeCategories, types.BehavesLikeGrouping:
	default:
		return t, fmt.Errorf("unknown behaves_like %q", t.BehavesLike)
	}
	t.Multiple = t.BehavesLike == types.BehavesLikeTags
	if doc.Multiple != nil {
		t.Multiple = *doc.Multiple
	}
	if t.IsGrouping() {
		t.Multiple = false
	}

	opts, err := parseOptions(&doc.Options)
	if err != nil {
		return t, err
	}
	t.Options = opts
	return t, nil
}

func parseOptions(n *yaml.Node) ([]types.TaxonomyOption, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		out := make([]types.TaxonomyOption, 0, len(names))
		for _, name := range names {
			out = append(out, types.TaxonomyOption{Slug: slug.Make(name), Name: name})
		}
		return out, nil
	default:
		entries, err := mappingEntries(n)
		if err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
		out := make([]types.TaxonomyOption, 0, len(entries))
		for _, e := range entries {
			out = append(out, types.TaxonomyOption{Slug: slug.Make(e.key), Name: firstNonEmpty(e.value.Value, e.key)})
		}
		return out, nil
	}
}
