package cache

import (
	"sync"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
)

// MemoryCache provides an in-memory L1 cache for catalog listings. The
// catalog changes only on admin imports, so a short TTL keeps the hot
// GET /tickers path off the database.
type MemoryCache struct {
	tickers  map[string]tickerEntry
	tickerMu sync.RWMutex
	ttl      time.Duration
}

type tickerEntry struct {
	data      []*models.Ticker
	fetchedAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		tickers: make(map[string]tickerEntry),
		ttl:     ttl,
	}
}

// tickerCacheKey generates a cache key for a filtered listing
func tickerCacheKey(exchange, sector string) string {
	return exchange + "|" + sector
}

// GetTickers retrieves a cached listing if fresh
func (c *MemoryCache) GetTickers(exchange, sector string) ([]*models.Ticker, bool) {
	c.tickerMu.RLock()
	defer c.tickerMu.RUnlock()

	entry, exists := c.tickers[tickerCacheKey(exchange, sector)]
	if !exists {
		return nil, false
	}
	if time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.data, true
}

// SetTickers caches a filtered listing
func (c *MemoryCache) SetTickers(exchange, sector string, data []*models.Ticker) {
	c.tickerMu.Lock()
	defer c.tickerMu.Unlock()

	c.tickers[tickerCacheKey(exchange, sector)] = tickerEntry{
		data:      data,
		fetchedAt: time.Now(),
	}
}

// Clear removes all cached data. Called after catalog imports.
func (c *MemoryCache) Clear() {
	c.tickerMu.Lock()
	c.tickers = make(map[string]tickerEntry)
	c.tickerMu.Unlock()
}
