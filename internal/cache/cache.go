// Package cache provides a small TTL key-value cache behind an interface so
// the in-memory implementation can be swapped for Redis in multi-instance
// deployments without touching call sites.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a TTL key-value store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
