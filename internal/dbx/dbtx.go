// Package dbx holds the small database/sql helpers shared by the cache
// repositories.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// either standalone or inside WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. The transaction commits when fn
// returns nil and rolls back otherwise. A panic in fn rolls back and is
// re-raised.
//
//	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := notes.Delete(ctx, tx, id); err != nil {
//	        return err
//	    }
//	    return tombstones.Add(ctx, tx, id)
//	})
func WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}
