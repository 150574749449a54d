package metadata

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

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestSetGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "user", []byte(`{"id":"u1"}`)))

	v, err := r.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(v))
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSet_Overwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte{1}))
	require.NoError(t, r.Delete(ctx, "k"))
	require.NoError(t, r.Delete(ctx, "k"))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT value FROM metadata`).WithArgs("user").WillReturnError(boom)
	mock.ExpectExec(`INSERT INTO metadata`).WithArgs("user", []byte("x")).WillReturnError(boom)
	mock.ExpectExec(`DELETE FROM metadata`).WithArgs("user").WillReturnError(boom)

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err = r.Get(ctx, "user")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get metadata[user]")

	err = r.Set(ctx, "user", []byte("x"))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to set metadata[user]")

	err = r.Delete(ctx, "user")
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
