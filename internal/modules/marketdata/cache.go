package marketdata

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached series counts as fresh.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	series   Series
	storedAt time.Time
}

// SeriesCache keeps the latest series per (symbol, period). Expired entries
// are kept so they can be served as a stale fallback.
type SeriesCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewSeriesCache creates a cache. now defaults to time.Now.
func NewSeriesCache(ttl time.Duration, now func() time.Time) *SeriesCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SeriesCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(symbol string, period Period) string {
	return symbol + "_" + string(period)
}

// Get returns the cached series, whether it is still fresh, and whether
// anything was cached at all.
func (c *SeriesCache) Get(symbol string, period Period) (series Series, fresh bool, found bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(symbol, period)]
	c.mu.RUnlock()
	if !ok {
		return Series{}, false, false
	}
	return entry.series, c.now().Sub(entry.storedAt) < c.ttl, true
}

// Set stores a series, replacing any previous entry.
func (c *SeriesCache) Set(series Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(series.Symbol, series.Period)] = cacheEntry{series: series, storedAt: c.now()}
}

// Len returns the number of cached series.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops entries older than maxAge and returns how many were removed.
func (c *SeriesCache) Purge(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > maxAge {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
