// Package cache provides a small thread-safe in-memory TTL cache, used to
// avoid re-fetching slow-changing gateway lookups on every trigger.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	expiration time.Time
}

// TTLCache is a thread-safe in-memory cache with per-entry TTL.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
}

// New creates a cache instance.
func New[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items: make(map[string]entry[V]),
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Set stores a value with the given TTL.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

// Delete removes a key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}
