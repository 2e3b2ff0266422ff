// Package db implements the database gateway over database/sql. SQLite
// (modernc.org/sqlite) is the default driver; MySQL and PostgreSQL are
// reachable through their registered drivers.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/folio/internal/dialect"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// sqlitePragmas are applied to every pooled SQLite connection.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Backend implements types.Gateway over a pooled *sql.DB.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.DatabaseConfig
	db       *sql.DB
	dialect  types.Dialect
	log      *zap.SugaredLogger
}

var (
	_ types.Gateway = (*Backend)(nil)
	_ types.Pinner  = (*Backend)(nil)
)

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(log *zap.SugaredLogger) *Backend {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Backend{log: log}
}

// Attach opens the database described by config. For SQLite it creates
// DataDir when missing and opens <DataDir>/<DatabaseName>.db.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.DatabaseConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	d, err := dialect.For(config.Driver)
	if err != nil {
		return err
	}

	driverName, dsn, err := dataSource(config)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}

	b.db = db
	b.dialect = d
	b.config = config
	b.attached = true
	b.log.Debugw("database attached", "driver", config.Driver)
	return nil
}

// dataSource returns the driver name and connection string for config.
func dataSource(config types.DatabaseConfig) (string, string, error) {
	switch config.Driver {
	case types.DriverSQLite:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return "", "", fmt.Errorf("creating data directory: %w", err)
		}
		name := config.DatabaseName
		if name == "" {
			name = types.DefaultDatabaseName
		}
		return "sqlite", filepath.Join(dataDir, name+".db") + sqlitePragmas, nil
	case types.DriverMySQL:
		return "mysql", config.DSN, nil
	case types.DriverPostgres:
		return "postgres", config.DSN, nil
	default:
		return "", "", fmt.Errorf("%w: %q", types.ErrDriverUnknown, config.Driver)
	}
}

// Detach closes the connection pool. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// executor returns the statement runner over the pool.
func (b *Backend) executor() (executor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return executor{}, types.ErrDetached
	}
	return executor{q: b.db, dialect: b.dialect, log: b.log}, nil
}

// Dialect returns the dialect of the attached database, or nil when detached.
func (b *Backend) Dialect() types.Dialect {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dialect
}

// IntrospectSchema implements types.Gateway.
func (b *Backend) IntrospectSchema(ctx context.Context) (types.TableMetadata, error) {
	ex, err := b.executor()
	if err != nil {
		return nil, err
	}
	return ex.IntrospectSchema(ctx)
}

// Exec implements types.Gateway.
func (b *Backend) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ex, err := b.executor()
	if err != nil {
		return 0, err
	}
	return ex.Exec(ctx, query, args...)
}

// Query implements types.Gateway.
func (b *Backend) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	ex, err := b.executor()
	if err != nil {
		return nil, err
	}
	return ex.Query(ctx, query, args...)
}

// Insert implements types.Gateway.
func (b *Backend) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	ex, err := b.executor()
	if err != nil {
		return 0, err
	}
	return ex.Insert(ctx, table, values)
}

// Update implements types.Gateway.
func (b *Backend) Update(ctx context.Context, table string, values, where map[string]any) (int64, error) {
	ex, err := b.executor()
	if err != nil {
		return 0, err
	}
	return ex.Update(ctx, table, values, where)
}

// Delete implements types.Gateway.
func (b *Backend) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	ex, err := b.executor()
	if err != nil {
		return 0, err
	}
	return ex.Delete(ctx, table, where)
}

// Pin reserves one pooled connection. Statements issued through the
// returned Session never interleave with another operation on that
// connection. The caller must Close the session.
func (b *Backend) Pin(ctx context.Context) (types.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("pinning connection: %w", err)
	}
	return &Session{
		conn:     conn,
		executor: executor{q: conn, dialect: b.dialect, log: b.log},
	}, nil
}

// Session is a gateway bound to a single connection.
type Session struct {
	conn *sql.Conn
	executor
}

var _ types.Session = (*Session)(nil)

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}
