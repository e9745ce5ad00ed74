package artwork

import (
	"sync"
	"time"
)

// Found results are kept longer than not-found results so that missing
// art is retried sooner.
const (
	positiveTTL = 60 * time.Minute
	negativeTTL = 15 * time.Minute
)

type cacheEntry struct {
	info   *ArtInfo // nil = cached "not found"
	expiry time.Time
}

// ttlCache is a mutex-guarded key/value cache with differentiated
// positive and negative TTLs. Eviction is lazy: an expired entry is
// treated as a miss and overwritten on the next Store. There is no
// background sweeper, so total entries can grow with the keyspace.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newTTLCache() *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Lookup returns the cached value for key. The second return is false
// when the key is absent or expired. A nil ArtInfo with found=true is a
// live negative entry.
func (c *ttlCache) Lookup(key string) (*ArtInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiry) {
		delete(c.entries, key)
		return nil, false
	}
	return e.info, true
}

// Store caches info under key with the TTL appropriate for its polarity.
func (c *ttlCache) Store(key string, info *ArtInfo) {
	ttl := positiveTTL
	if info == nil {
		ttl = negativeTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{info: info, expiry: c.now().Add(ttl)}
}
