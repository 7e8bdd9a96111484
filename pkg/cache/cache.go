// Package cache provides pluggable byte caches for computed layouts.
//
// Layout engines are deterministic for identical input, so a layout can be
// cached under a hash of its input and reused across canvas instances and
// CLI runs.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON envelope per key under a directory (CLI default)
//   - [RedisCache]: shared cache for several processes
//
// # Keys
//
// A [LayoutKey] pairs the engine name with the structural hash of the
// layout input ([HashJSON]). A [Keyer] renders it as the backend key;
// [ScopedKeyer] prefixes keys for namespace isolation in shared backends.
package cache

import (
	"context"
	"time"
)

// TTLLayout is the default lifetime of a cached layout.
const TTLLayout = 7 * 24 * time.Hour

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer renders layout keys for a backend.
type Keyer interface {
	Key(k LayoutKey) string
}

// DefaultKeyer renders keys with LayoutKey.String.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// Key implements Keyer.
func (DefaultKeyer) Key(k LayoutKey) string { return k.String() }
