package cache

import "time"

// Cache defines a minimal key-value cache API with a TTL per entry.
// Implementations are goroutine-safe.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	// An expired entry is removed as a side effect.
	Get(key K) (V, bool)

	// Set stores the value with an optional TTL. If ttl <= 0, the entry does not expire.
	Set(key K, value V, ttl time.Duration)

	// Delete removes a key if present.
	Delete(key K)

	// Has reports whether a key is present and not expired.
	Has(key K) bool

	// Len returns the number of non-expired items currently stored.
	Len() int

	// Keys returns the non-expired keys.
	Keys() []K

	// Clear removes all entries.
	Clear()

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}

// Policy holds the three independent lifetimes of one resource type.
// MemoryTTL <= PersistentTTL <= Revalidate is the intended ordering but
// each tier governs its own entries.
type Policy struct {
	Name          string
	MemoryTTL     time.Duration
	PersistentTTL time.Duration
	Revalidate    time.Duration
}

// RevalidateSeconds is the upstream revalidation hint in whole seconds.
func (p Policy) RevalidateSeconds() int {
	return int(p.Revalidate / time.Second)
}
