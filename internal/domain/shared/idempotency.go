package shared

import (
	"context"
	"time"
)

// ReplayStore remembers the outcome of client requests carrying an idempotency key.
// A key moves from reserved to completed (holding a result reference) or is released on failure.
type ReplayStore interface {
	// Reserve claims the key. It returns false if the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the result reference for a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the stored result reference. done is false while the key is only reserved.
	// An unknown or expired key yields ErrNotFound.
	Lookup(ctx context.Context, key string) (result string, done bool, err error)

	// Release forgets the key so the request can be retried
	Release(ctx context.Context, key string) error

	Close() error
}
