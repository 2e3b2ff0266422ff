package schema

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// State is the position of a reconciliation run.
type State int

// Reconciliation states, in order.
const (
	StateUnreconciled State = iota
	StateTablesChecked
	StateColumnsChecked
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnreconciled:
		return "unreconciled"
	case StateTablesChecked:
		return "tables-checked"
	case StateColumnsChecked:
		return "columns-checked"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultLockTTL is how long a repair lock is honored before another run
// may break it.
const DefaultLockTTL = 5 * time.Minute

// Reconciler compares the configured content model against the live schema
// and, on Repair, applies the additive changes: missing tables are created
// and missing columns are added. Nothing is ever dropped, renamed or
// retyped.
type Reconciler struct {
	gw      types.Gateway
	cfg     *types.Config
	log     *zap.SugaredLogger
	lockTTL time.Duration
	state   State
}

// NewReconciler returns a Reconciler for cfg over gw. A nil log discards
// output.
func NewReconciler(gw types.Gateway, cfg *types.Config, log *zap.SugaredLogger) *Reconciler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reconciler{gw: gw, cfg: cfg, log: log, lockTTL: DefaultLockTTL}
}

// State returns the state reached by the last run.
func (r *Reconciler) State() State {
	return r.state
}

// Check reports the changes Repair would make without executing any DDL.
func (r *Reconciler) Check(ctx context.Context) (Report, error) {
	live, err := NewIntrospector(r.gw).ListTables(ctx, r.cfg.Database.Prefix)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, newPass(r.cfg, nil, live, r.log))
}

// Repair applies every missing table and column under the schema lock.
// On error the returned report lists the changes already applied.
func (r *Reconciler) Repair(ctx context.Context) (Report, error) {
	gw := r.gw
	if p, ok := gw.(types.Pinner); ok {
		s, err := p.Pin(ctx)
		if err != nil {
			return nil, fmt.Errorf("pinning connection: %w", err)
		}
		defer s.Close()
		gw = s
	}

	lock := NewLock(gw, r.cfg.FixedTable(types.TableSchemaLock), r.lockTTL, r.log)
	if err := lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.log.Warnw("releasing schema lock", "error", err)
		}
	}()

	live, err := NewIntrospector(gw).ListTables(ctx, r.cfg.Database.Prefix)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, newPass(r.cfg, gw, live, r.log))
}

// Plan computes the report for cfg against an already introspected schema.
// It performs no I/O.
func Plan(cfg *types.Config, live types.TableMetadata) Report {
	p := newPass(cfg, nil, cloneMetadata(live), nil)
	// A pass without a gateway cannot fail.
	_ = p.checkTables(context.Background())
	_ = p.checkColumns(context.Background())
	return p.report
}

func (r *Reconciler) run(ctx context.Context, p *pass) (Report, error) {
	r.state = StateUnreconciled
	for r.state != StateDone {
		var err error
		next := r.state + 1
		switch r.state {
		case StateUnreconciled:
			err = p.checkTables(ctx)
		case StateTablesChecked:
			err = p.checkColumns(ctx)
		}
		if err != nil {
			return p.report, err
		}
		r.log.Debugw("reconcile", "state", next.String())
		r.state = next
	}
	return p.report, nil
}

// pass is one walk over the content model. With a nil gateway it only
// records what it would do.
type pass struct {
	cfg    *types.Config
	gw     types.Gateway
	live   types.TableMetadata
	log    *zap.SugaredLogger
	report Report
}

func newPass(cfg *types.Config, gw types.Gateway, live types.TableMetadata, log *zap.SugaredLogger) *pass {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &pass{cfg: cfg, gw: gw, live: live, log: log}
}

func (p *pass) tables() []TableDef {
	defs := FixedTables(p.cfg)
	for i := range p.cfg.ContentTypes {
		defs = append(defs, ContentTable(p.cfg, &p.cfg.ContentTypes[i]))
	}
	return defs
}

func (p *pass) checkTables(ctx context.Context) error {
	for _, t := range p.tables() {
		if _, ok := p.live[t.Name]; ok {
			continue
		}
		if p.gw != nil {
			d := p.gw.Dialect()
			if _, err := p.gw.Exec(ctx, createTableSQL(d, t)); err != nil {
				return fmt.Errorf("creating table %s: %w", t.Name, err)
			}
			for _, idx := range t.Indexes {
				if _, err := p.gw.Exec(ctx, createIndexSQL(d, t.Name, idx)); err != nil {
					return fmt.Errorf("creating index %s: %w", idx.Name, err)
				}
			}
		}
		cols := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			cols[c.Name] = ""
		}
		p.live[t.Name] = cols
		p.record(Change{Kind: ChangeTableCreated, Table: t.Name})
	}
	return nil
}

func (p *pass) checkColumns(ctx context.Context) error {
	for _, t := range FixedTables(p.cfg) {
		for _, c := range t.Columns {
			if c.Kind == types.ColumnAutoID {
				continue
			}
			if err := p.ensureColumn(ctx, t.Name, c); err != nil {
				return err
			}
		}
	}

	for i := range p.cfg.ContentTypes {
		ct := &p.cfg.ContentTypes[i]
		table := p.cfg.TableName(ct)
		for _, c := range contentColumns {
			if c.Kind == types.ColumnAutoID {
				continue
			}
			if err := p.ensureColumn(ctx, table, c); err != nil {
				return err
			}
		}
		for _, f := range ct.Fields {
			if f.Type == types.FieldDivider || types.IsBaseColumn(f.Name) {
				continue
			}
			ft, ok := f.FieldType()
			if !ok {
				p.record(Change{
					Kind:        ChangeUnknownFieldType,
					Table:       table,
					Column:      f.Name,
					ContentType: ct.Slug,
					FieldType:   f.Type,
				})
				continue
			}
			if !ft.Materialized() {
				continue
			}
			if err := p.ensureColumn(ctx, table, ft.ColumnFor(f.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) ensureColumn(ctx context.Context, table string, c types.Column) error {
	if p.live.HasColumn(table, c.Name) {
		return nil
	}
	if p.gw != nil {
		if _, err := p.gw.Exec(ctx, addColumnSQL(p.gw.Dialect(), table, c)); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, c.Name, err)
		}
	}
	if p.live[table] == nil {
		p.live[table] = make(map[string]string)
	}
	p.live[table][c.Name] = ""
	p.record(Change{Kind: ChangeColumnAdded, Table: table, Column: c.Name})
	return nil
}

func (p *pass) record(c Change) {
	p.report = append(p.report, c)
	if c.Diagnostic() {
		p.log.Warnw(c.String(), "table", c.Table, "known_types", types.FieldTypeNames())
		return
	}
	if p.gw != nil {
		p.log.Infow(c.String(), "table", c.Table)
	}
}

func cloneMetadata(m types.TableMetadata) types.TableMetadata {
	out := make(types.TableMetadata, len(m))
	for t, cols := range m {
		cp := make(map[string]string, len(cols))
		for c, typ := range cols {
			cp[c] = typ
		}
		out[t] = cp
	}
	return out
}
