// Package metadata is a small key/value table in the client database holding
// the session and the sync checkpoint.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
