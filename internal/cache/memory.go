package cache

import (
	"sort"
	"sync"
	"time"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && !at.Before(e.expiresAt)
}

// MemoryStore is the process-local tier: a map-backed cache with per-item TTL.
// There is no background janitor; expired entries are evicted when read or via PurgeExpired.
type MemoryStore[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{
		items: make(map[K]entry[V]),
	}
}

// now is a small indirection to allow test stubbing.
var now = time.Now

// Get implements Cache.Get.
func (c *MemoryStore[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if e.expired(now()) {
		c.mu.Lock()
		// re-check under the write lock; a concurrent Set may have replaced it
		if cur, ok := c.items[key]; ok && cur.expired(now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set implements Cache.Set.
func (c *MemoryStore[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	created := now()
	var exp time.Time
	if ttl > 0 {
		exp = created.Add(ttl)
	}
	c.items[key] = entry[V]{
		value:     value,
		createdAt: created,
		expiresAt: exp,
	}
}

// Delete implements Cache.Delete.
func (c *MemoryStore[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Has implements Cache.Has.
func (c *MemoryStore[K, V]) Has(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return ok && !e.expired(now())
}

// Len implements Cache.Len. It counts only non-expired entries.
func (c *MemoryStore[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts := now()
	count := 0
	for _, e := range c.items {
		if !e.expired(ts) {
			count++
		}
	}
	return count
}

// Keys implements Cache.Keys.
func (c *MemoryStore[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts := now()
	keys := make([]K, 0, len(c.items))
	for k, e := range c.items {
		if !e.expired(ts) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clear implements Cache.Clear.
func (c *MemoryStore[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// PurgeExpired implements Cache.PurgeExpired.
func (c *MemoryStore[K, V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return
	}
	ts := now()
	for k, e := range c.items {
		if e.expired(ts) {
			delete(c.items, k)
		}
	}
}

// SortedKeys returns Keys in lexical order, for stable stats output.
func SortedKeys[V any](c *MemoryStore[string, V]) []string {
	keys := c.Keys()
	sort.Strings(keys)
	return keys
}

// Ensure MemoryStore implements Cache at compile time.
var _ Cache[string, any] = (*MemoryStore[string, any])(nil)
