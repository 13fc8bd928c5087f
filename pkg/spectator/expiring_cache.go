package spectator

import (
	"sync"
	"time"
)

// ExpiringCache maps an Id to an arbitrary value, dropping entries that
// have gone unused for longer than the configured expiry window. It backs
// the percentile composite caches: a PercentileTimer/PercentileDistribution
// Summary wrapper is cheap to recreate, but the per-bucket Counters it
// wraps live in the Registry regardless, so the cache only needs to avoid
// leaking the small wrapper objects themselves for Ids that stopped
// reporting.
type ExpiringCache[V any] struct {
	expiry time.Duration

	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
}

type cacheEntry[V any] struct {
	lastUsed int64 // unix nanos
	value    V
}

// NewExpiringCache returns a cache that expires entries unused for longer
// than expiry (120s for the percentile composite caches, per spec.md §4.4.3).
func NewExpiringCache[V any](expiry time.Duration) *ExpiringCache[V] {
	return &ExpiringCache[V]{expiry: expiry, entries: make(map[string]*cacheEntry[V])}
}

// GetOrCreate returns the cached value for id, calling makeFn to create
// and cache one if absent. Every call, hit or miss, refreshes last_used.
func (c *ExpiringCache[V]) GetOrCreate(id Id, makeFn func() V) V {
	key := id.Key()
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.lastUsed = now
		return e.value
	}
	v := makeFn()
	c.entries[key] = &cacheEntry[V]{lastUsed: now, value: v}
	return v
}

// Expire sweeps every entry whose last use is older than the expiry
// window and returns (size_before, removed).
func (c *ExpiringCache[V]) Expire() (sizeBefore, removed int) {
	now := time.Now().UnixNano()
	cutoff := c.expiry.Nanoseconds()

	c.mu.Lock()
	defer c.mu.Unlock()
	sizeBefore = len(c.entries)
	for k, e := range c.entries {
		if now-e.lastUsed > cutoff {
			delete(c.entries, k)
			removed++
		}
	}
	return sizeBefore, removed
}

// Size returns the current entry count.
func (c *ExpiringCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
