package pgmap

import "context"

// ---------- Query results ----------

// Row is one result row keyed by column name.
type Row = map[string]any

// Plan is what gets submitted to a pool: the prepared statement identity,
// its normalized text and the positional values.
type Plan struct {
	Name   string
	Text   string
	Values []any
}

// Result is an ordered row set.
type Result struct {
	Rows []Row
}

// ---------- Connections ----------

type Conn interface {
	Query(ctx context.Context, plan Plan) (*Result, error)
}

// PoolConn represents a leased connection from a pool.
// Release must be called exactly once per lease.
type PoolConn interface {
	Conn() Conn
	Release()
}

// ---------- Pool ----------

// Pool owns a set of live database connections.
//
// Quick acquires a connection, runs one plan on it and releases it on every
// exit path. Connect hands the lease to the caller for multi-step use.
// After Close the pool is terminal.
type Pool interface {
	Connect(ctx context.Context) (PoolConn, error)
	Quick(ctx context.Context, plan Plan) (*Result, error)
	Close() error
}
