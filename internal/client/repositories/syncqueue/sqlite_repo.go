package syncqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, e *models.SyncQueueEntry) error {
	if e.State == "" {
		e.State = models.EntryPending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_queue (id, action, payload, enqueued_at, state) VALUES (?, ?, ?, ?, ?)`,
		e.Id, string(e.Action), []byte(e.Payload), e.EnqueuedAt.UTC().Format(time.RFC3339Nano), string(e.State))
	if err != nil {
		return fmt.Errorf("failed to append %s entry: %w", e.Action, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry seq: %w", err)
	}
	e.Seq = seq
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.SyncQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, id, action, payload, enqueued_at, state FROM sync_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync queue: %w", err)
	}
	defer rows.Close()

	var result []models.SyncQueueEntry
	for rows.Next() {
		var (
			e                     models.SyncQueueEntry
			action, state, queued string
			payload               []byte
		)
		if err := rows.Scan(&e.Seq, &e.Id, &action, &payload, &queued, &state); err != nil {
			return nil, fmt.Errorf("failed to scan sync queue entry: %w", err)
		}
		e.Action = models.SyncAction(action)
		e.State = models.EntryState(state)
		e.Payload = payload
		if e.EnqueuedAt, err = time.Parse(time.RFC3339Nano, queued); err != nil {
			return nil, fmt.Errorf("entry %d: bad enqueued_at: %w", e.Seq, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) State(ctx context.Context, seq int64) (models.EntryState, error) {
	var state string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM sync_queue WHERE seq = ?`, seq).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEntryNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state of entry %d: %w", seq, err)
	}
	return models.EntryState(state), nil
}

func (r *SQLiteRepository) SetState(ctx context.Context, seq int64, state models.EntryState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sync_queue SET state = ? WHERE seq = ?`, string(state), seq)
	if err != nil {
		return fmt.Errorf("failed to set state of entry %d: %w", seq, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteThrough(ctx context.Context, seq int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE seq <= ?`, seq)
	if err != nil {
		return 0, fmt.Errorf("failed to clear sync queue through %d: %w", seq, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}
