package pgmap

import (
	"context"
	"sync"
)

// fakePool records plans and counts leases.
type fakePool struct {
	mu sync.Mutex

	rows       []Row
	queryErr   error
	acquireErr error

	plans    []Plan
	acquired int
	released int
	closed   int
}

func (f *fakePool) Connect(context.Context) (PoolConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &fakePoolConn{pool: f}, nil
}

func (f *fakePool) Quick(ctx context.Context, plan Plan) (*Result, error) {
	pc, err := f.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()
	return pc.Conn().Query(ctx, plan)
}

func (f *fakePool) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakePool) lastPlan() Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans[len(f.plans)-1]
}

type fakePoolConn struct {
	pool *fakePool
}

func (c *fakePoolConn) Conn() Conn { return c }

func (c *fakePoolConn) Release() {
	c.pool.mu.Lock()
	c.pool.released++
	c.pool.mu.Unlock()
}

func (c *fakePoolConn) Query(_ context.Context, plan Plan) (*Result, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.plans = append(c.pool.plans, plan)
	if c.pool.queryErr != nil {
		return nil, c.pool.queryErr
	}
	return &Result{Rows: c.pool.rows}, nil
}
