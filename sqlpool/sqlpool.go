// Package sqlpool implements a pgmap pool provider over database/sql using
// the pgx stdlib driver. database/sql has no named statements, so plans are
// executed by their text and the driver's own statement cache applies.
package sqlpool

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dronm/pgmap"
)

const ProviderID = "sql"

func init() {
	pgmap.Register(ProviderID, New)
}

// New opens a database/sql pool over the pgx stdlib driver. PoolMax bounds
// open and idle connections. database/sql has no minimum pool size, so
// PoolMin is ignored and connections open on demand.
func New(cfg pgmap.Config) (pgmap.Pool, error) {
	pc, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*pc.ConnConfig)
	db.SetMaxOpenConns(int(pc.MaxConns))
	db.SetMaxIdleConns(int(pc.MaxConns))
	db.SetConnMaxIdleTime(pc.MaxConnIdleTime)
	return NewWithDB(db), nil
}

// NewWithDB wraps an opened *sql.DB. The pool takes ownership of it.
func NewWithDB(db *sql.DB) *Pool {
	return &Pool{db: db}
}

// Pool leases *sql.Conn values from a *sql.DB.
type Pool struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

func (p *Pool) acquire(ctx context.Context) (*sql.Conn, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, pgmap.ErrClosed
	}
	return p.db.Conn(ctx)
}

func (p *Pool) Connect(ctx context.Context) (pgmap.PoolConn, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &DbPool{DbConn: &DbConn{Conn: c}}, nil
}

func (p *Pool) Quick(ctx context.Context, plan pgmap.Plan) (*pgmap.Result, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return (&DbConn{Conn: c}).Query(ctx, plan)
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}

// DbPool is one lease.
type DbPool struct {
	DbConn *DbConn
	once   sync.Once
}

func (p *DbPool) Conn() pgmap.Conn {
	return p.DbConn
}

func (p *DbPool) Release() {
	p.once.Do(func() { _ = p.DbConn.Conn.Close() })
}

type DbConn struct {
	Conn *sql.Conn
}

func (c *DbConn) Query(ctx context.Context, plan pgmap.Plan) (*pgmap.Result, error) {
	rows, err := c.Conn.QueryContext(ctx, plan.Text, plan.Values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &pgmap.Result{Rows: []pgmap.Row{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(pgmap.Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = append([]byte(nil), b...)
			}
			row[col] = vals[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
