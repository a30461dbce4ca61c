package pgmap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/dronm/pgmap/internal/logger"
)

// Verbosity controls how much the debug pool prints per query.
type Verbosity string

const (
	// VerbosityNone logs names, text and timings only.
	VerbosityNone Verbosity = ""
	// VerbosityInput also logs parameter values.
	VerbosityInput Verbosity = "input"
	// VerbosityAll also logs parameter values and result rows.
	VerbosityAll Verbosity = "all"
)

func newConsoleLogger() *slog.Logger {
	return logger.New(logger.Options{Level: "debug"})
}

// debugPool instruments every lease of the wrapped pool.
type debugPool struct {
	inner     Pool
	log       *slog.Logger
	verbosity Verbosity
	now       func() time.Time
}

// NewDebugPool wraps inner with per-lease tracing. It keeps inner's contract.
func NewDebugPool(inner Pool, log *slog.Logger, v Verbosity) Pool {
	if log == nil {
		log = newConsoleLogger()
	}
	return &debugPool{inner: inner, log: log, verbosity: v, now: time.Now}
}

func (p *debugPool) Connect(ctx context.Context) (PoolConn, error) {
	pc, err := p.inner.Connect(ctx)
	if err != nil {
		p.log.ErrorContext(ctx, "pg[pool] acquire failed", slog.Any("err", err))
		return nil, err
	}
	return &debugPoolConn{
		pc:    pc,
		pool:  p,
		name:  fmt.Sprintf("pg[pool.%s]", leaseToken()),
		start: p.now(),
	}, nil
}

func (p *debugPool) Quick(ctx context.Context, plan Plan) (*Result, error) {
	pc, err := p.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	return pc.Conn().Query(ctx, plan)
}

func (p *debugPool) Close() error {
	return p.inner.Close()
}

// leaseToken is a 0000-ffff id for one lease.
func leaseToken() string {
	var b [2]byte
	_, _ = rand.Read(b[:]) // cannot fail as of Go 1.24
	return hex.EncodeToString(b[:])
}

type debugPoolConn struct {
	pc    PoolConn
	pool  *debugPool
	name  string
	start time.Time
}

func (c *debugPoolConn) Conn() Conn { return c }

func (c *debugPoolConn) Release() { c.pc.Release() }

func (c *debugPoolConn) Query(ctx context.Context, plan Plan) (*Result, error) {
	log := c.pool.log.With(slog.String("component", c.name))
	log.DebugContext(ctx, "run: "+plan.Name)
	log.DebugContext(ctx, "text: "+plan.Text)

	res, err := c.pc.Conn().Query(ctx, plan)

	// measured from acquisition, like the lease it belongs to
	log.DebugContext(ctx, fmt.Sprintf("time: %dms", c.pool.now().Sub(c.start).Milliseconds()))

	switch {
	case err != nil:
		log.ErrorContext(ctx, "error", slog.Any("err", err))
	case c.pool.verbosity == VerbosityInput:
		log.DebugContext(ctx, "params", slog.Any("values", plan.Values))
	case c.pool.verbosity == VerbosityAll:
		log.DebugContext(ctx, "params", slog.Any("values", plan.Values))
		log.DebugContext(ctx, "result", slog.Any("rows", res.Rows))
	}
	return res, err
}
