// Package cache provides response caching for the external data providers.
//
// Overpass and Nominatim responses are slow to fetch and rate-limited, so
// the pipeline caches them keyed by request. Three backends are provided:
//   - FileCache: directory-backed, used by the CLI (~/.cache/cartopress)
//   - RedisCache: shared backend for serve deployments
//   - NullCache: disables caching (--no-cache, tests)
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key builds a namespaced cache key from a prefix and the request payload.
// The payload is hashed so arbitrarily long Overpass queries produce short,
// filesystem-safe keys.
func Key(prefix string, payload []byte) string {
	return prefix + ":" + Hash(payload)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
