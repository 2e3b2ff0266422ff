package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/folio/pkg/types"
)

type settingsDoc struct {
	Database struct {
		Driver       string `yaml:"driver"`
		DatabaseName string `yaml:"databasename"`
		Prefix       string `yaml:"prefix"`
	} `yaml:"database"`
	ListingRecords int  `yaml:"listing_records"`
	CascadeDelete  bool `yaml:"cascade_delete"`
}

const sampleContentTypes = `entries:
  name: Entries
  singular_name: Entry
  fields:
    title:
      type: text
    slug:
      type: slug
      uses: title
    body:
      type: html
    image:
      type: image
  taxonomy: [ tags, categories ]
  sort: -datecreated

pages:
  name: Pages
  singular_name: Page
  fields:
    title:
      type: text
    slug:
      type: slug
      uses: title
    teaser:
      type: textarea
    body:
      type: html
  relations:
    entries:
      multiple: true
  taxonomy: [ chapters ]
`

const sampleTaxonomy = `tags:
  slug: tags
  singular_slug: tag
  behaves_like: tags

categories:
  name: Categories
  singular_name: Category
  behaves_like: categories
  multiple: true
  options: [ news, events, movies ]

chapters:
  name: Chapters
  singular_name: Chapter
  behaves_like: grouping
  options:
    main: The main chapter
    meta: Meta chapter
    other: The other stuff
`

// EnsureDefaults writes a starter config.yaml, contenttypes.yml and
// taxonomy.yml into configDir, creating the directory if needed. Existing
// files are left alone. It returns the paths it created.
func EnsureDefaults(configDir string) ([]string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	var settings settingsDoc
	settings.Database.Driver = types.DriverSQLite
	settings.Database.DatabaseName = types.DefaultDatabaseName
	settings.Database.Prefix = types.DefaultPrefix
	settings.ListingRecords = types.DefaultListingRecords
	settingsYAML, err := yaml.Marshal(&settings)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ConfigFile, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{ConfigFile, settingsYAML},
		{ContentTypesFile, []byte(sampleContentTypes)},
		{TaxonomyFile, []byte(sampleTaxonomy)},
	}

	var created []string
	for _, f := range files {
		path := filepath.Join(configDir, f.name)
		ok, err := writeIfMissing(path, f.data)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, path)
		}
	}
	return created, nil
}

func writeIfMissing(path string, data []byte) (bool, error) {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return false, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return true, fh.Close()
}
