// Package cache stores rendered parse responses keyed by source hash: in
// process memory, in Redis so that several service instances share them, or
// in a SQLite file that survives restarts.
package cache

import (
	"context"
	"fmt"
	"time"

	compilercache "github.com/tsparse/tsparse/internal/compiler/cache"
)

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache
	Clear(ctx context.Context) error

	// Close releases the backend
	Close() error
}

// Config holds common configuration for cache backends
type Config struct {
	// DefaultTTL is used when Set is called with a zero TTL; negative
	// means no expiry
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 10 * time.Minute,
		Prefix:     "tsparse:",
	}
}

// ErrCacheMiss is returned when a key is not found in the cache
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	_, ok := err.(ErrCacheMiss)
	return ok
}

var hasher = compilercache.NewFileHasher()

// SourceKey is the key under which the parse of source under the named
// grammar is stored.
func SourceKey(grammarName, source string) string {
	return fmt.Sprintf("parse:%s:%s", hasher.HashString(grammarName), hasher.HashString(source))
}
