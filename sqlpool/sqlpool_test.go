package sqlpool

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronm/pgmap"
)

func newMockPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return NewWithDB(db), mock
}

func TestQuick(t *testing.T) {
	t.Run("rows keyed by column", func(t *testing.T) {
		p, mock := newMockPool(t)
		defer func() { _ = p.db.Close() }()

		mock.ExpectQuery("SELECT id, name FROM users WHERE name = $1").
			WithArgs("Rich").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), "Rich").
				AddRow(int64(2), []byte("Rich")))

		res, err := p.Quick(context.Background(), pgmap.Plan{
			Name:   "ignored",
			Text:   "SELECT id, name FROM users WHERE name = $1",
			Values: []any{"Rich"},
		})
		require.NoError(t, err)
		require.Len(t, res.Rows, 2)
		assert.Equal(t, pgmap.Row{"id": int64(1), "name": "Rich"}, res.Rows[0])
		assert.Equal(t, pgmap.Row{"id": int64(2), "name": []byte("Rich")}, res.Rows[1])
		assert.Equal(t, 0, p.db.Stats().InUse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is an empty row set", func(t *testing.T) {
		p, mock := newMockPool(t)
		defer func() { _ = p.db.Close() }()

		mock.ExpectQuery("SELECT 1 WHERE false").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		res, err := p.Quick(context.Background(), pgmap.Plan{Text: "SELECT 1 WHERE false"})
		require.NoError(t, err)
		assert.NotNil(t, res.Rows)
		assert.Empty(t, res.Rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error releases the connection", func(t *testing.T) {
		p, mock := newMockPool(t)
		defer func() { _ = p.db.Close() }()

		queryErr := errors.New("syntax error at or near")
		mock.ExpectQuery("SELEC 1").WillReturnError(queryErr)

		_, err := p.Quick(context.Background(), pgmap.Plan{Text: "SELEC 1"})
		assert.ErrorIs(t, err, queryErr)
		assert.Equal(t, 0, p.db.Stats().InUse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row error", func(t *testing.T) {
		p, mock := newMockPool(t)
		defer func() { _ = p.db.Close() }()

		mock.ExpectQuery("SELECT a").
			WillReturnRows(sqlmock.NewRows([]string{"a"}).
				AddRow("x").
				RowError(0, errors.New("broken row")))

		_, err := p.Quick(context.Background(), pgmap.Plan{Text: "SELECT a"})
		assert.EqualError(t, err, "broken row")
		assert.Equal(t, 0, p.db.Stats().InUse)
	})
}

func TestConnect(t *testing.T) {
	p, mock := newMockPool(t)
	defer func() { _ = p.db.Close() }()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT 2").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(2)))

	ctx := context.Background()
	pc, err := p.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.db.Stats().InUse)

	for i, text := range []string{"SELECT 1", "SELECT 2"} {
		res, err := pc.Conn().Query(ctx, pgmap.Plan{Text: text})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), res.Rows[0]["n"])
	}

	pc.Release()
	pc.Release()
	assert.Equal(t, 0, p.db.Stats().InUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	p, mock := newMockPool(t)
	mock.ExpectClose()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.Quick(context.Background(), pgmap.Plan{Text: "SELECT 1"})
	assert.ErrorIs(t, err, pgmap.ErrClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew(t *testing.T) {
	off := false
	p, err := New(pgmap.Config{
		URL:     "postgres://nobody@127.0.0.1:1/none",
		PoolMax: 4,
		PoolMin: 2,
		SSL:     &off,
	})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	// PoolMin opens nothing up front
	stats := p.(*Pool).db.Stats()
	assert.Equal(t, 4, stats.MaxOpenConnections)
	assert.Equal(t, 0, stats.OpenConnections)
}

func TestLibraryOverSQLPool(t *testing.T) {
	p, mock := newMockPool(t)
	mock.ExpectQuery("INSERT INTO t (name) VALUES ($1)").
		WithArgs("Rich").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery("SELECT name FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectClose()

	lib := pgmap.New(p)
	ctx := context.Background()

	got, err := lib.MapSingle(pgmap.Prepare("INSERT INTO t (name) VALUES ($1)"), "name").
		Call(ctx, pgmap.Named{"name": "Rich"})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = lib.MapSingleStrict(pgmap.Prepare("SELECT name FROM t")).Call(ctx, nil)
	assert.ErrorIs(t, err, pgmap.ErrNotFound)

	require.NoError(t, lib.Disconnect())
	assert.NoError(t, mock.ExpectationsWereMet())
}
