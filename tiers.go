package pgmap

import (
	"context"
)

// RowConstructor turns a raw row into a caller type. It must not retain or
// mutate the row.
type RowConstructor[T any] func(Row) (T, error)

// AsRow is the identity constructor.
func AsRow(r Row) (Row, error) { return r, nil }

// ---------- Tier primitives ----------

func querySingle(ctx context.Context, pool Pool, q PreparedQuery, values []any) (Row, error) {
	res, err := pool.Quick(ctx, plan(q, values))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res.Rows[0], nil
}

func querySingleStrict(ctx context.Context, pool Pool, q PreparedQuery, values []any) (Row, error) {
	res, err := pool.Quick(ctx, plan(q, values))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return res.Rows[0], nil
}

func queryMultiple(ctx context.Context, pool Pool, q PreparedQuery, values []any) ([]Row, error) {
	res, err := pool.Quick(ctx, plan(q, values))
	if err != nil {
		return nil, err
	}
	if res.Rows == nil {
		return []Row{}, nil
	}
	return res.Rows, nil
}

func plan(q PreparedQuery, values []any) Plan {
	return Plan{Name: q.Name, Text: q.Text, Values: values}
}

// ---------- Callables ----------

type callable[T any] struct {
	lib   *Library
	query PreparedQuery
	ctor  RowConstructor[T]
}

func (c *callable[T]) Query() PreparedQuery { return c.query }

func (c *callable[T]) values(params any) []any {
	return mapParameters(c.lib.log, params, c.query.Params)
}

// Single returns at most one row; an empty result is not an error.
type Single[T any] struct{ callable[T] }

// Call runs the query. A nil *T with nil error means no row.
func (s *Single[T]) Call(ctx context.Context, params any) (*T, error) {
	pool, err := s.lib.pool()
	if err != nil {
		return nil, err
	}
	row, err := querySingle(ctx, pool, s.query, s.values(params))
	if err != nil || row == nil {
		return nil, err
	}
	v, err := s.ctor(row)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SingleStrict returns exactly one row or ErrNotFound.
type SingleStrict[T any] struct{ callable[T] }

func (s *SingleStrict[T]) Call(ctx context.Context, params any) (T, error) {
	var zero T
	pool, err := s.lib.pool()
	if err != nil {
		return zero, err
	}
	row, err := querySingleStrict(ctx, pool, s.query, s.values(params))
	if err != nil {
		return zero, err
	}
	return s.ctor(row)
}

// Multiple returns every row, possibly none.
type Multiple[T any] struct{ callable[T] }

func (m *Multiple[T]) Call(ctx context.Context, params any) ([]T, error) {
	pool, err := m.lib.pool()
	if err != nil {
		return nil, err
	}
	rows, err := queryMultiple(ctx, pool, m.query, m.values(params))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := m.ctor(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
