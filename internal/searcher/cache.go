package searcher

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/haru-search/pkg/types"
)

// DefaultCacheTTL is used when WithCache is given a non-positive TTL
const DefaultCacheTTL = 30 * time.Second

// cacheKey identifies a global search: results depend on the caller's visibility
type cacheKey struct {
	query    string
	callerID string
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	results   types.GlobalResults
	expiresAt time.Time
}

// responseCache is a TTL-bounded LRU of global search responses.
// A nil *responseCache is a valid, always-missing cache.
type responseCache struct {
	cache   *lru.Cache[cacheKey, *cacheEntry]
	cacheMu sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

func newResponseCache(size int, ttl time.Duration) (*responseCache, error) {
	if size < 0 {
		return nil, fmt.Errorf("cache size must not be negative, got %d", size)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cache, err := lru.New[cacheKey, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &responseCache{cache: cache, ttl: ttl, now: time.Now}, nil
}

// get returns a deep copy of a live entry
func (c *responseCache) get(key cacheKey) (types.GlobalResults, bool) {
	if c == nil {
		return types.GlobalResults{}, false
	}

	c.cacheMu.RLock()
	entry, found := c.cache.Get(key)
	if !found {
		c.cacheMu.RUnlock()
		return types.GlobalResults{}, false
	}

	// Check expiry while holding the read lock
	if c.now().After(entry.expiresAt) {
		c.cacheMu.RUnlock()

		// Remove expired entry - need write lock
		c.cacheMu.Lock()
		c.cache.Remove(key)
		c.cacheMu.Unlock()
		return types.GlobalResults{}, false
	}

	results := entry.results.Clone()
	c.cacheMu.RUnlock()

	return results, true
}

// put stores a deep copy so later caller mutations cannot leak into the cache
func (c *responseCache) put(key cacheKey, results types.GlobalResults) {
	if c == nil {
		return
	}

	entry := &cacheEntry{
		results:   results.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}

	c.cacheMu.Lock()
	c.cache.Add(key, entry)
	c.cacheMu.Unlock()
}

func (c *responseCache) purge() {
	if c == nil {
		return
	}
	c.cacheMu.Lock()
	c.cache.Purge()
	c.cacheMu.Unlock()
}

// InvalidateCache drops every cached global search response.
// Collaborators call it after bulk data changes they need reflected immediately.
func (s *Searcher) InvalidateCache() {
	s.cache.purge()
}
