// Package store provides the durable key-value storage abstraction used by
// the version gate. Production code runs on Redis; tests substitute the
// in-memory implementation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed, string-valued durable store scoped to the site's
// origin. Implementations must serialize individual key writes but need not
// provide cross-key transactional guarantees.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, keys ...string) error

	// Keys returns all keys carrying the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
