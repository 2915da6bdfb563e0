// Package cache provides thread-safe caching utilities with time-based expiration.
package cache

import (
	"sync"
	"time"
)

// entry pairs a cached value with its expiration deadline.
type entry[V any] struct {
	value   V
	expires time.Time
}

// TTLCache is a thread-safe cache with per-entry time-based expiration.
// Each Set stamps the entry with its own deadline, so a fresh entry is
// never evicted because an old one went stale.
type TTLCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
}

// New creates a new TTLCache with the given TTL duration.
// A TTL of zero or less means entries never expire on their own;
// they remain until Delete or Invalidate removes them.
func New[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]entry[V]),
		ttl:  ttl,
	}
}

// Get retrieves a value from the cache.
// Returns the value and ok=true if the key exists and its entry has not expired.
// Returns zero value and ok=false otherwise. Expired entries are left in place;
// Purge removes them.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.expiredLocked(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with a fresh expiration deadline.
// An existing entry for the key is replaced.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[K]entry[V])
	}
	c.data[key] = entry[V]{value: value, expires: time.Now().Add(c.ttl)}
}

// Delete removes a single entry from the cache.
// Deleting a missing key is a no-op.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// Invalidate clears all cached data.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]entry[V])
}

// Purge removes all expired entries and returns how many were removed.
func (c *TTLCache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.data {
		if c.expiredLocked(e) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of items currently in the cache.
// This does not check expiration - it counts expired entries too.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// expiredLocked reports whether an entry is past its deadline.
// MUST be called with at least a read lock held.
func (c *TTLCache[K, V]) expiredLocked(e entry[V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return !time.Now().Before(e.expires)
}
