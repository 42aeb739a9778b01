package storm

import (
	"context"
	"time"
)

// Cache is the interface for caching compiled statements. Implement it with
// your preferred store (in-memory, Redis, Memcached). Cached entries hold
// statement text and metadata only, never bound parameter values.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies one compiled statement shape. Two builders with the
// same accumulated state and dialect produce the same key.
type CacheKey struct {
	Dialect     string
	Entity      string
	Operation   string
	Fingerprint string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Dialect + ":" + k.Entity + ":" + k.Operation + ":" + k.Fingerprint
}
