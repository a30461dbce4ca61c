// Package pgpool implements the standard pgmap pool provider on top of
// pgx/pgxpool. Statements are prepared on the leased connection under their
// pgmap name, so repeated calls reuse the server-side plan.
package pgpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dronm/pgmap"
)

const ProviderID = "pg"

// conn is one leased pgx connection.
type conn interface {
	query(ctx context.Context, plan pgmap.Plan) ([]pgmap.Row, error)
	release()
}

type dbHandle interface {
	acquire(ctx context.Context) (conn, error)
	close()
}

//
// ---------- Provider registration ----------
//

func init() {
	pgmap.Register(ProviderID, New)
}

func New(cfg pgmap.Config) (pgmap.Pool, error) {
	pc, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	return &Pool{db: newDB(pc)}, nil
}

//
// ---------- Pool ----------
//

// Pool is the standard variant: a plain acquire/execute/release forwarder.
type Pool struct {
	db dbHandle

	mu     sync.RWMutex
	closed bool
}

func (p *Pool) acquire(ctx context.Context) (conn, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, pgmap.ErrClosed
	}
	return p.db.acquire(ctx)
}

func (p *Pool) Connect(ctx context.Context) (pgmap.PoolConn, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &poolConn{c: c}, nil
}

// Quick runs plan on a connection of its own, released on every path.
func (p *Pool) Quick(ctx context.Context, plan pgmap.Plan) (*pgmap.Result, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.release()

	rows, err := c.query(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &pgmap.Result{Rows: rows}, nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.db.close()
	return nil
}

//
// ---------- db ----------
//

type db struct {
	cfg *pgxpool.Config

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func newDB(cfg *pgxpool.Config) *db {
	return &db{cfg: cfg}
}

// acquire creates the pool on first use.
func (d *db) acquire(ctx context.Context) (conn, error) {
	d.mu.Lock()
	if d.pool == nil {
		pool, err := pgxpool.NewWithConfig(ctx, d.cfg)
		if err != nil {
			d.mu.Unlock()
			return nil, fmt.Errorf("pgpool: create pool: %w", err)
		}
		d.pool = pool
	}
	pool := d.pool
	d.mu.Unlock()

	c, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgConn{c: c.Conn(), rel: c.Release}, nil
}

func (d *db) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}

//
// ---------- PoolConn ----------
//

type poolConn struct {
	c    conn
	once sync.Once
}

func (p *poolConn) Conn() pgmap.Conn {
	return p
}

func (p *poolConn) Query(ctx context.Context, plan pgmap.Plan) (*pgmap.Result, error) {
	rows, err := p.c.query(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &pgmap.Result{Rows: rows}, nil
}

// Release returns the connection; extra calls are ignored.
func (p *poolConn) Release() {
	p.once.Do(p.c.release)
}

//
// ---------- Conn ----------
//

// pgxConn is the part of *pgx.Conn a lease uses.
type pgxConn interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgConn struct {
	c   pgxConn
	rel func()
}

func (c *pgConn) query(ctx context.Context, plan pgmap.Plan) ([]pgmap.Row, error) {
	sql := plan.Text
	if plan.Name != "" {
		// Prepare is idempotent for an unchanged name and text.
		if _, err := c.c.Prepare(ctx, plan.Name, plan.Text); err != nil {
			return nil, err
		}
		sql = plan.Name
	}

	rows, err := c.c.Query(ctx, sql, plan.Values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

func (c *pgConn) release() {
	c.rel()
}
