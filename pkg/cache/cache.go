// Package cache stores rendered artifacts keyed by content hash.
//
// Rendering a frame with Graphviz is the slowest step of the render command,
// and identical DOT sources always produce identical output. Callers derive
// a key from everything that affects the bytes with [Key] and consult a
// [Cache] before rendering.
//
// Two implementations are provided: [FileCache] for the CLI, and
// [NullCache] when caching is disabled.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with optional expiry. Implementations must be safe
// for concurrent use.
type Cache interface {
	// Get returns the data stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// Key derives a cache key from a namespace and the parts that determine the
// cached bytes. Parts are separated so ("ab", "c") and ("a", "bc") differ.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash computes the SHA-256 hash of data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
