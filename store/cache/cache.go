// Package cache provides the key-value cache used for slider payloads and for
// the populate locks that serialize cache misses. Two backends exist: an
// in-process memory cache for single-instance deployments and a redis cache
// for multi-instance deployments. Both honor the same atomicity contract for
// SetIfAbsent.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with TTL support.
//
// SetIfAbsent is the mutual-exclusion primitive: for a given unexpired key,
// exactly one concurrent caller observes acquired == true. TTLs are advisory
// expirations, not hard consistency guarantees.
type Cache interface {
	// Get retrieves a value. Returns the value and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfAbsent stores a value only if the key does not exist yet.
	// Returns whether this caller performed the write.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
