// Package syncqueue persists the ordered log of mutations made while the
// remote service was unreachable.
package syncqueue

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

// ErrEntryNotFound is returned when no entry has the requested seq.
var ErrEntryNotFound = errors.New("sync queue entry not found")

type Repository interface {
	// Append stores e and assigns e.Seq.
	Append(ctx context.Context, e *models.SyncQueueEntry) error

	// List returns all entries ordered by seq.
	List(ctx context.Context) ([]models.SyncQueueEntry, error)

	State(ctx context.Context, seq int64) (models.EntryState, error)
	SetState(ctx context.Context, seq int64, state models.EntryState) error

	// DeleteThrough removes entries with seq <= seq and returns how many went.
	DeleteThrough(ctx context.Context, seq int64) (int64, error)

	Count(ctx context.Context) (int, error)
}
