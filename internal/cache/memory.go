package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache implementation. Safe for concurrent use.
type MemoryCache struct {
	mu            sync.RWMutex
	entries       map[string]memoryEntry
	cleanupTicker *time.Ticker
	done          chan struct{}
}

// NewMemoryCache creates a memory cache that sweeps expired entries every
// cleanup interval
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries:       make(map[string]memoryEntry),
		cleanupTicker: time.NewTicker(cleanupInterval),
		done:          make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// cleanup periodically removes expired entries to prevent memory leaks
func (c *MemoryCache) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Get returns the value for key or ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores value under key for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Stop stops the cleanup goroutine
func (c *MemoryCache) Stop() {
	c.cleanupTicker.Stop()
	close(c.done)
}
