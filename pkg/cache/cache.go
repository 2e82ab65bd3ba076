// Package cache provides the byte caches used by the diagram pipeline.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the API server, and [NullCache] when caching is disabled. Keys come from a
// [Keyer] so that every caller derives the same key for the same input.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default TTLs per entry kind.
const (
	TTLParse    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Clearer is implemented by backends that can drop all of their entries.
// Clear reports how many entries it removed.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// NullCache stores nothing; every Get misses. It backs --no-cache runs and
// the "none" backend.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Clear(context.Context) (int, error) { return 0, nil }
func (NullCache) Close() error { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
	_ Clearer = (*FileCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
