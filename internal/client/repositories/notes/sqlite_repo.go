package notes

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

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, origin Origin, n models.Note) error {
	query := `
		INSERT INTO notes (id, origin, title, content, author_id, is_locked, password, created_at, updated_at, offline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, origin) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			author_id = excluded.author_id,
			is_locked = excluded.is_locked,
			password = excluded.password,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			offline = excluded.offline
	`
	_, err := r.db.ExecContext(ctx, query,
		n.Id, string(origin), n.Title, n.Content, n.AuthorID, n.IsLocked, n.Password,
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt), n.Offline)
	if err != nil {
		return fmt.Errorf("failed to upsert %s note %s: %w", origin, n.Id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, origin Origin) ([]models.Note, int, error) {
	query := `
		SELECT id, title, content, author_id, is_locked, password, created_at, updated_at, offline
		FROM notes WHERE origin = ?
	`
	rows, err := r.db.QueryContext(ctx, query, string(origin))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select %s notes: %w", origin, err)
	}
	defer rows.Close()

	var (
		result  []models.Note
		skipped int
	)
	for rows.Next() {
		var (
			n                models.Note
			created, updated string
		)
		if err := rows.Scan(&n.Id, &n.Title, &n.Content, &n.AuthorID, &n.IsLocked, &n.Password, &created, &updated, &n.Offline); err != nil {
			skipped++
			continue
		}
		if n.CreatedAt, err = parseTime(created); err != nil {
			skipped++
			continue
		}
		if n.UpdatedAt, err = parseTime(updated); err != nil {
			skipped++
			continue
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s notes: %w", origin, err)
	}

	return result, skipped, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, origin Origin, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE origin = ? AND id = ?`, string(origin), id); err != nil {
		return fmt.Errorf("failed to delete %s note %s: %w", origin, id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, origin Origin) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE origin = ?`, string(origin)); err != nil {
		return fmt.Errorf("failed to clear %s notes: %w", origin, err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up note %s: %w", id, err)
	}
	return true, nil
}

func (r *SQLiteRepository) AddTombstone(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tombstones (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to add tombstone %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTombstone(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tombstones WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tombstone %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Tombstones(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tombstones`)
	if err != nil {
		return nil, fmt.Errorf("failed to select tombstones: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tombstone: %w", err)
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tombstones: %w", err)
	}
	return result, nil
}
