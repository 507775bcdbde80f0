package port

import (
	"context"
	"time"
)

// Cache is the minimal contract for a key-value cache. Implementations must
// be concurrency-safe and context-aware so callers can drive timeouts.
// Values are strings to keep the port free of serialization concerns.
type Cache interface {
	// Get fetches the value for key. A miss is reported as ("", ErrMiss);
	// non-nil errors other than ErrMiss are transport or server failures.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way, letting callers differentiate
// misses from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
