package marketdata

import (
	"sync"
	"time"
)

// cacheEntry stores one cached value with its expiry. Expiry is measured from
// insertion, never from access, so staleness stays predictably bounded.
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// ttlCache is a small per-key TTL cache. Writes replace an entry atomically as
// a unit; readers never observe a partially updated entry. There is no
// eviction beyond TTL expiry: the tracked-symbol universe is small.
type ttlCache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry[T]
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry[T]),
	}
}

// Get returns the cached value for key if a non-expired entry exists.
func (c *ttlCache[T]) Get(key string) (T, bool) {
	var zero T
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	return entry.value, true
}

// Put stores value under key, replacing any previous entry.
func (c *ttlCache[T]) Put(key string, value T) {
	if c.ttl <= 0 {
		return
	}

	entry := cacheEntry[T]{value: value, expiresAt: c.now().Add(c.ttl)}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
}

// Invalidate drops the entry for key if present.
func (c *ttlCache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *ttlCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
