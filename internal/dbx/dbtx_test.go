package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)
	return db
}

func rows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	return n
}

func TestWithTx_Commit(t *testing.T) {
	db := openDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, rows(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
		require.NoError(t, err)
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, rows(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openDB(t)

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', '1')`)
			panic("kaput")
		})
	})
	assert.Equal(t, 0, rows(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	err = WithTx(context.Background(), db, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "begin tx")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err = WithTx(context.Background(), db, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "commit")
	require.NoError(t, mock.ExpectationsWereMet())
}
