package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

const lockName = "reconcile"

// Lock is an advisory lock row that keeps two repair runs from issuing DDL
// against the same database at once. Each Lock carries its own owner token;
// a lock older than its TTL is considered abandoned and may be broken.
type Lock struct {
	gw    types.Gateway
	table string
	owner string
	ttl   time.Duration
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewLock returns an unacquired lock stored in table.
func NewLock(gw types.Gateway, table string, ttl time.Duration, log *zap.SugaredLogger) *Lock {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Lock{
		gw:    gw,
		table: table,
		owner: uuid.NewString(),
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Owner returns the token identifying this lock holder.
func (l *Lock) Owner() string {
	return l.owner
}

// Acquire takes the lock or returns an error wrapping ErrReconcileLocked
// when another live holder has it.
func (l *Lock) Acquire(ctx context.Context) error {
	d := l.gw.Dialect()
	table := d.QuoteIdentifier(l.table)
	create := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(64) NOT NULL PRIMARY KEY, %s VARCHAR(64) NOT NULL, %s VARCHAR(32) NOT NULL)",
		table, d.QuoteIdentifier("name"), d.QuoteIdentifier("owner"), d.QuoteIdentifier("acquired_at"))
	if _, err := l.gw.Exec(ctx, create); err != nil {
		return fmt.Errorf("creating lock table: %w", err)
	}

	cutoff := l.now().Add(-l.ttl).UTC().Format(types.TimestampLayout)
	stale := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s < ?",
		table, d.QuoteIdentifier("name"), d.QuoteIdentifier("acquired_at"))
	n, err := l.gw.Exec(ctx, stale, lockName, cutoff)
	if err != nil {
		return fmt.Errorf("breaking stale lock: %w", err)
	}
	if n > 0 {
		l.log.Warnw("broke stale schema lock", "table", l.table)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?)",
		table, d.QuoteIdentifier("name"), d.QuoteIdentifier("owner"), d.QuoteIdentifier("acquired_at"))
	acquired := l.now().UTC().Format(types.TimestampLayout)
	if _, err := l.gw.Exec(ctx, insert, lockName, l.owner, acquired); err != nil {
		holder, qerr := l.holder(ctx)
		if qerr == nil && holder != "" && holder != l.owner {
			return fmt.Errorf("%w: held by %s", types.ErrReconcileLocked, holder)
		}
		return fmt.Errorf("acquiring schema lock: %w", err)
	}
	l.log.Debugw("acquired schema lock", "owner", l.owner)
	return nil
}

// Release drops the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	n, err := l.gw.Delete(ctx, l.table, map[string]any{"name": lockName, "owner": l.owner})
	if err != nil {
		return fmt.Errorf("releasing schema lock: %w", err)
	}
	if n == 0 {
		return types.ErrNotLockHolder
	}
	return nil
}

func (l *Lock) holder(ctx context.Context) (string, error) {
	d := l.gw.Dialect()
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		d.QuoteIdentifier("owner"), d.QuoteIdentifier(l.table), d.QuoteIdentifier("name"))
	rows, err := l.gw.Query(ctx, q, lockName)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return types.RawString(rows[0]["owner"]), nil
}
