package db

import (
	"context"
	"strings"
	"sync"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// Stats counts the statements issued through a Recorder.
type Stats struct {
	Reads   int `json:"reads"`
	Inserts int `json:"inserts"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
	DDL     int `json:"ddl"`
}

// Writes returns the number of data-modifying statements.
func (s Stats) Writes() int {
	return s.Inserts + s.Updates + s.Deletes
}

// Recorder wraps a gateway and counts the statements passing through it.
// Sessions pinned through a Recorder share its counters.
type Recorder struct {
	inner types.Gateway
	mu    *sync.Mutex
	stats *Stats
}

// NewRecorder returns a Recorder around gw with zeroed counters.
func NewRecorder(gw types.Gateway) *Recorder {
	return &Recorder{inner: gw, mu: &sync.Mutex{}, stats: &Stats{}}
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.stats
}

// Reset zeroes the counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.stats = Stats{}
}

func (r *Recorder) count(f func(s *Stats)) {
	r.mu.Lock()
	f(r.stats)
	r.mu.Unlock()
}

func (r *Recorder) Dialect() types.Dialect { return r.inner.Dialect() }

func (r *Recorder) IntrospectSchema(ctx context.Context) (types.TableMetadata, error) {
	r.count(func(s *Stats) { s.Reads++ })
	return r.inner.IntrospectSchema(ctx)
}

// Exec classifies free-form statements by their leading keyword.
func (r *Recorder) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	switch strings.ToUpper(verb) {
	case "INSERT":
		r.count(func(s *Stats) { s.Inserts++ })
	case "UPDATE":
		r.count(func(s *Stats) { s.Updates++ })
	case "DELETE":
		r.count(func(s *Stats) { s.Deletes++ })
	case "SELECT":
		r.count(func(s *Stats) { s.Reads++ })
	default:
		r.count(func(s *Stats) { s.DDL++ })
	}
	return r.inner.Exec(ctx, query, args...)
}

func (r *Recorder) Query(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	r.count(func(s *Stats) { s.Reads++ })
	return r.inner.Query(ctx, query, args...)
}

func (r *Recorder) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	r.count(func(s *Stats) { s.Inserts++ })
	return r.inner.Insert(ctx, table, values)
}

func (r *Recorder) Update(ctx context.Context, table string, values, where map[string]any) (int64, error) {
	r.count(func(s *Stats) { s.Updates++ })
	return r.inner.Update(ctx, table, values, where)
}

func (r *Recorder) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	r.count(func(s *Stats) { s.Deletes++ })
	return r.inner.Delete(ctx, table, where)
}

// Pin pins the wrapped gateway when it supports pinning. Otherwise the
// Recorder itself serves as the session.
func (r *Recorder) Pin(ctx context.Context) (types.Session, error) {
	p, ok := r.inner.(types.Pinner)
	if !ok {
		return nopSession{r}, nil
	}
	s, err := p.Pin(ctx)
	if err != nil {
		return nil, err
	}
	return &recordedSession{
		Recorder: &Recorder{inner: s, mu: r.mu, stats: r.stats},
		closer:   s,
	}, nil
}

type recordedSession struct {
	*Recorder
	closer types.Session
}

func (s *recordedSession) Close() error { return s.closer.Close() }

type nopSession struct{ *Recorder }

func (nopSession) Close() error { return nil }

var (
	_ types.Gateway = (*Recorder)(nil)
	_ types.Pinner  = (*Recorder)(nil)
	_ types.Session = (*recordedSession)(nil)
)
