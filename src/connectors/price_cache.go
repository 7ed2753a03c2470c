package connectors

import (
	"sync"
	"time"
)

// PriceCache holds last prices per pair for a short TTL.
// A zero or negative TTL disables caching.
type PriceCache struct {
	mu    sync.Mutex
	items map[string]priceEntry
	ttl   time.Duration
	now   func() time.Time
}

type priceEntry struct {
	price     float64
	expiresAt time.Time
}

// NewPriceCache returns a cache with the provided ttl.
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{
		items: make(map[string]priceEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached price if present and not expired.
func (c *PriceCache) Get(pair string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[pair]; ok {
		if c.now().Before(item.expiresAt) {
			return item.price, true
		}
		delete(c.items, pair)
	}
	return 0, false
}

// Set stores a price until ttl expiry.
func (c *PriceCache) Set(pair string, price float64) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[pair] = priceEntry{
		price:     price,
		expiresAt: c.now().Add(c.ttl),
	}
}
