// Package metadata stores small key/value records of the local cache, such as
// the signed-in user.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
