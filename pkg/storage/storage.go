package storage

import (
	"context"
)

// Store is a key/value persistence layer for client-side state that must
// survive restarts, such as the offline preview bundle.
type Store interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Get returns the stored bytes, or nil if the key does not exist
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
