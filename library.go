package pgmap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Library composes prepared queries, parameter mapping and the execution
// tiers over one explicitly owned pool.
type Library struct {
	log *slog.Logger

	mu     sync.RWMutex
	p      Pool
	closed bool
}

type Option func(*Library)

// WithLogger sets the logger used for preparation and mapping traces.
func WithLogger(l *slog.Logger) Option {
	return func(lib *Library) {
		if l != nil {
			lib.log = l
		}
	}
}

// New wraps an existing pool. The library owns it from now on and closes it
// on Disconnect.
func New(pool Pool, opts ...Option) *Library {
	lib := &Library{p: pool, log: discardLogger}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Open resolves cfg, builds the pool provider named by cfg.Driver and wraps
// it in the debug variant when cfg.Debug is set.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Library, error) {
	cfg, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	pool, err := NewProvider(cfg.Driver, cfg)
	if err != nil {
		return nil, err
	}

	lib := New(pool, opts...)
	if cfg.Debug {
		if lib.log == discardLogger {
			lib.log = newConsoleLogger()
		}
		lib.p = NewDebugPool(pool, lib.log, cfg.Verbosity)
	}
	lib.log.DebugContext(ctx, "pool configured",
		slog.String("driver", cfg.Driver),
		slog.Int("max", cfg.PoolMax),
		slog.Int("min", cfg.PoolMin),
	)
	return lib, nil
}

func (l *Library) pool() (Pool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	return l.p, nil
}

// Prepare is the package Prepare with a trace of the result.
func (l *Library) Prepare(raw string, params ...string) PreparedQuery {
	q := Prepare(raw, params...)
	l.log.Debug(fmt.Sprintf("preparing %s => %q", q.Name, q.Text), slog.String("component", "pg[init]"))
	return q
}

// Load reads and prepares a SQL file.
func (l *Library) Load(path string, params ...string) (PreparedQuery, error) {
	q, err := Load(path, params...)
	if err != nil {
		return q, err
	}
	l.log.Debug(fmt.Sprintf("preparing %s => %q", q.Name, q.Text),
		slog.String("component", "pg[init]"),
		slog.String("file", path),
	)
	return q, nil
}

// Connect leases a raw connection. The caller must Release it exactly once.
func (l *Library) Connect(ctx context.Context) (PoolConn, error) {
	pool, err := l.pool()
	if err != nil {
		return nil, err
	}
	return pool.Connect(ctx)
}

// Disconnect closes the pool. The library is unusable afterwards.
func (l *Library) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.p.Close()
}

// MapSingle declares a query returning at most one row.
// A parameter order carried by q takes precedence over params.
func (l *Library) MapSingle(q PreparedQuery, params ...string) *Single[Row] {
	return MapSingleTo(l, q, AsRow, params...)
}

// MapSingleStrict declares a query returning exactly one row.
func (l *Library) MapSingleStrict(q PreparedQuery, params ...string) *SingleStrict[Row] {
	return MapSingleStrictTo(l, q, AsRow, params...)
}

// MapMultiple declares a query returning any number of rows.
func (l *Library) MapMultiple(q PreparedQuery, params ...string) *Multiple[Row] {
	return MapMultipleTo(l, q, AsRow, params...)
}

func MapSingleTo[T any](l *Library, q PreparedQuery, ctor RowConstructor[T], params ...string) *Single[T] {
	return &Single[T]{newCallable(l, q, ctor, params)}
}

func MapSingleStrictTo[T any](l *Library, q PreparedQuery, ctor RowConstructor[T], params ...string) *SingleStrict[T] {
	return &SingleStrict[T]{newCallable(l, q, ctor, params)}
}

func MapMultipleTo[T any](l *Library, q PreparedQuery, ctor RowConstructor[T], params ...string) *Multiple[T] {
	return &Multiple[T]{newCallable(l, q, ctor, params)}
}

func newCallable[T any](l *Library, q PreparedQuery, ctor RowConstructor[T], params []string) callable[T] {
	if ctor == nil {
		panic("pgmap: nil row constructor")
	}
	if q.Params == nil && len(params) > 0 {
		q.Params = append([]string(nil), params...)
	}
	return callable[T]{lib: l, query: q, ctor: ctor}
}
