package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/folio/internal/slug"
	"github.com/mesh-intelligence/folio/pkg/types"
)

type contentTypeDoc struct {
	Name           string     `yaml:"name"`
	SingularName   string     `yaml:"singular_name"`
	Slug           string     `yaml:"slug"`
	SingularSlug   string     `yaml:"singular_slug"`
	Fields         yaml.Node  `yaml:"fields"`
	Relations      yaml.Node  `yaml:"relations"`
	Taxonomy       stringList `yaml:"taxonomy"`
	Sort           string     `yaml:"sort"`
	DefaultStatus  string     `yaml:"default_status"`
	ListingRecords int        `yaml:"listing_records"`
}

type fieldDoc struct {
	Type        string     `yaml:"type"`
	Default     string     `yaml:"default"`
	Label       string     `yaml:"label"`
	Uses        stringList `yaml:"uses"`
	ContentType string     `yaml:"contenttype"`
}

type relationDoc struct {
	ContentType string `yaml:"contenttype"`
	Label       string `yaml:"label"`
	Multiple    *bool  `yaml:"multiple"`
}

func loadContentTypes(path string) ([]types.ContentType, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	cts, err := ParseContentTypes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ContentTypesFile, err)
	}
	return cts, nil
}

// ParseContentTypes decodes a contenttypes.yml document. Content types and
// fields keep their document order. Names and slugs left out are derived
// from the mapping key.
func ParseContentTypes(data []byte) ([]types.ContentType, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	entries, err := mappingEntries(&root)
	if err != nil {
		return nil, err
	}

	out := make([]types.ContentType, 0, len(entries))
	for _, e := range entries {
		var doc contentTypeDoc
		if err := e.value.Decode(&doc); err != nil {
			return nil, fmt.Errorf("content type %q: %w", e.key, err)
		}
		ct, err := doc.contentType(e.key)
		if err != nil {
			return nil, fmt.Errorf("content type %q: %w", e.key, err)
		}
		out = append(out, ct)
	}
	return out, nil
}

func (doc *contentTypeDoc) contentType(key string) (types.ContentType, error) {
	ct := types.ContentType{
		Name:           firstNonEmpty(doc.Name, key),
		SingularName:   doc.SingularName,
		Sort:           strings.TrimSpace(doc.Sort),
		DefaultStatus:  strings.TrimSpace(doc.DefaultStatus),
		ListingRecords: doc.ListingRecords,
	}
	ct.Slug = slug.Identifier(firstNonEmpty(doc.Slug, key))
	ct.SingularSlug = slug.Identifier(firstNonEmpty(doc.SingularSlug, doc.SingularName))
	if ct.SingularSlug == "" {
		ct.SingularSlug = ct.Slug
	}
	if ct.SingularName == "" {
		ct.SingularName = ct.Name
	}
	if ct.DefaultStatus != "" && !types.IsValidStatus(ct.DefaultStatus) {
		return ct, fmt.Errorf("%w: default_status %q", types.ErrInvalidStatus, ct.DefaultStatus)
	}
	for _, t := range doc.Taxonomy {
		ct.Taxonomy = append(ct.Taxonomy, slug.Identifier(t))
	}

	fields, err := mappingEntries(&doc.Fields)
	if err != nil {
		return ct, fmt.Errorf("fields: %w", err)
	}
	for _, e := range fields {
		var fd fieldDoc
		if err := e.value.Decode(&fd); err != nil {
			return ct, fmt.Errorf("field %q: %w", e.key, err)
		}
		ct.Fields = append(ct.Fields, types.Field{
			Name:        e.key,
			Type:        strings.ToLower(strings.TrimSpace(fd.Type)),
			Default:     fd.Default,
			Label:       fd.Label,
			Uses:        fd.Uses,
			ContentType: fd.ContentType,
		})
	}

	relations, err := mappingEntries(&doc.Relations)
	if err != nil {
		return ct, fmt.Errorf("relations: %w", err)
	}
	for _, e := range relations {
		var rd relationDoc
		if err := e.value.Decode(&rd); err != nil {
			return ct, fmt.Errorf("relation %q: %w", e.key, err)
		}
		multiple := true
		if rd.Multiple != nil {
			multiple = *rd.Multiple
		}
		ct.Relations = append(ct.Relations, types.Relation{
			Name:        e.key,
			ContentType: slug.Identifier(firstNonEmpty(rd.ContentType, e.key)),
			Label:       rd.Label,
			Multiple:    multiple,
		})
	}

	// Fields of type relation declare a relation of the same name.
	for _, f := range ct.Fields {
		if f.Type != types.FieldRelation {
			continue
		}
		if _, ok := ct.Relation(f.Name); ok {
			continue
		}
		ct.Relations = append(ct.Relations, types.Relation{
			Name:        f.Name,
			ContentType: slug.Identifier(firstNonEmpty(f.ContentType, f.Name)),
			Label:       f.Label,
			Multiple:    true,
		})
	}
	return ct, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
