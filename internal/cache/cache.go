// Package cache provides the response and lookup caches used by the
// resolution engine, backed by Redis in production and an in-process map
// for development and tests.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Client is the storage-agnostic cache contract.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key joins key components with colons.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
