// Package notes persists the two note sets of the local cache, the remote
// snapshot and the local overlay, together with the tombstones of notes
// deleted while offline.
package notes

import (
	"context"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

// Origin tells which set a note row belongs to.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Repository describes storage of note rows and tombstones.
type Repository interface {
	// Upsert inserts n into the given set or replaces the row with the same id.
	Upsert(ctx context.Context, origin Origin, n models.Note) error

	// List returns every well-formed row of a set. Rows that cannot be decoded
	// are skipped and counted in the second result.
	List(ctx context.Context, origin Origin) ([]models.Note, int, error)

	Delete(ctx context.Context, origin Origin, id string) error
	DeleteAll(ctx context.Context, origin Origin) error

	// Exists reports whether id is used by either set.
	Exists(ctx context.Context, id string) (bool, error)

	AddTombstone(ctx context.Context, id string) error
	DeleteTombstone(ctx context.Context, id string) error
	Tombstones(ctx context.Context) (map[string]struct{}, error)
}
