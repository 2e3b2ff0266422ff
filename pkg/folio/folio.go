// Package folio opens a folio site: it loads the configuration directory,
// attaches the configured database and hands out the record storage and
// schema reconciler bound to it.
//
// Example:
//
//	site, err := folio.Open(folio.Options{ConfigDir: "config"})
//	if err != nil {
//	    return err
//	}
//	defer site.Close()
//	res, err := site.Storage.Query(ctx, "entries/latest/5", types.Params{})
package folio

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/config"
	"github.com/mesh-intelligence/folio/internal/db"
	"github.com/mesh-intelligence/folio/internal/schema"
	"github.com/mesh-intelligence/folio/internal/storage"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Version is the folio release.
const Version = "0.1.0"

// Options locates and parameterizes a site.
type Options struct {
	// ConfigDir holds config.yaml, contenttypes.yml and taxonomy.yml.
	ConfigDir string
	// DataDir overrides the configured SQLite data directory.
	DataDir string
	Log     *zap.SugaredLogger
	// Record counts the statements issued through the site; see Stats.
	Record bool
}

// Site is an attached folio database with its loaded configuration.
type Site struct {
	Config     *types.Config
	Storage    *storage.Storage
	Reconciler *schema.Reconciler

	backend  *db.Backend
	recorder *db.Recorder
	gw       types.Gateway
	log      *zap.SugaredLogger
}

// Open loads the configuration in opts.ConfigDir and attaches its
// database. The schema is not touched; call Reconciler.Repair for that.
// The caller must Close the site.
func Open(opts Options) (*Site, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cfg, err := config.Load(config.Options{ConfigDir: opts.ConfigDir, DataDir: opts.DataDir})
	if err != nil {
		return nil, err
	}

	backend := db.NewBackend(log)
	if err := backend.Attach(cfg.Database); err != nil {
		return nil, fmt.Errorf("attaching database: %w", err)
	}

	s := &Site{Config: cfg, backend: backend, gw: backend, log: log}
	if opts.Record {
		s.recorder = db.NewRecorder(backend)
		s.gw = s.recorder
	}
	s.Storage = storage.New(s.gw, cfg, log)
	s.Reconciler = schema.NewReconciler(s.gw, cfg, log)
	return s, nil
}

// Gateway returns the database gateway the site issues statements through.
func (s *Site) Gateway() types.Gateway {
	return s.gw
}

// Stats returns the statement counts since Open. ok is false unless the
// site was opened with Record.
func (s *Site) Stats() (stats db.Stats, ok bool) {
	if s.recorder == nil {
		return db.Stats{}, false
	}
	return s.recorder.Stats(), true
}

// Close detaches the database.
func (s *Site) Close() error {
	if stats, ok := s.Stats(); ok {
		s.log.Infow("statements issued",
			"reads", stats.Reads,
			"inserts", stats.Inserts,
			"updates", stats.Updates,
			"deletes", stats.Deletes,
			"ddl", stats.DDL)
	}
	return s.backend.Detach()
}
