// Package config loads folio's configuration directory: config.yaml read
// through viper, and the ordered contenttypes.yml and taxonomy.yml files
// decoded with yaml.v3.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// File names inside the configuration directory.
const (
	ConfigFile       = "config.yaml"
	ContentTypesFile = "contenttypes.yml"
	TaxonomyFile     = "taxonomy.yml"
)

// config.yaml keys.
const (
	KeyDriver         = "database.driver"
	KeyDatabaseName   = "database.databasename"
	KeyDSN            = "database.dsn"
	KeyPrefix         = "database.prefix"
	KeyDataDir        = "data_dir"
	KeyListingRecords = "listing_records"
	KeyCascadeDelete  = "cascade_delete"
)

// envPrefix scopes environment overrides, e.g. FOLIO_DATABASE_DRIVER.
const envPrefix = "FOLIO"

// Options locates the configuration to load.
type Options struct {
	// ConfigDir holds config.yaml, contenttypes.yml and taxonomy.yml.
	ConfigDir string
	// DataDir overrides data_dir from config.yaml when set.
	DataDir string
}

// Load reads and validates the configuration in opts.ConfigDir. Missing
// files fall back to defaults: an empty directory yields a SQLite
// configuration with no content types.
func Load(opts Options) (*types.Config, error) {
	v, err := readSettings(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	dataDir, err := paths.ResolveDataDir(opts.DataDir, v.GetString(KeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}

	cfg := &types.Config{
		Database: types.DatabaseConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString(KeyDriver))),
			DatabaseName: v.GetString(KeyDatabaseName),
			DSN:          v.GetString(KeyDSN),
			DataDir:      dataDir,
			Prefix:       v.GetString(KeyPrefix),
		},
		ListingRecords: v.GetInt(KeyListingRecords),
		CascadeDelete:  v.GetBool(KeyCascadeDelete),
	}

	cfg.Taxonomies, err = loadTaxonomies(filepath.Join(opts.ConfigDir, TaxonomyFile))
	if err != nil {
		return nil, err
	}
	cfg.ContentTypes, err = loadContentTypes(filepath.Join(opts.ConfigDir, ContentTypesFile))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func readSettings(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyDriver, types.DriverSQLite)
	v.SetDefault(KeyDatabaseName, types.DefaultDatabaseName)
	v.SetDefault(KeyPrefix, types.DefaultPrefix)
	v.SetDefault(KeyListingRecords, types.DefaultListingRecords)
	v.SetDefault(KeyCascadeDelete, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join(configDir, ConfigFile))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
	}
	return v, nil
}

// readOptional returns the content of path, or nil when it does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return data, nil
}
