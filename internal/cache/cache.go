package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
)

type entry struct {
	quote     quotes.Quote
	fetchedAt time.Time
}

// Cache holds the last fetched quote per symbol. An entry is fresh while
// now - fetchedAt < ttl; stale entries are never returned but may linger
// until the next sweep, which runs far less often than the TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached quote for symbol if present and fresh.
func (c *Cache) Get(symbol string) (quotes.Quote, bool) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		observ.IncCounter("quote_cache_misses_total", nil)
		return quotes.Quote{}, false
	}
	observ.IncCounter("quote_cache_hits_total", nil)
	return e.quote, true
}

// Put overwrites the entry for symbol, stamped with the current time.
func (c *Cache) Put(symbol string, q quotes.Quote) {
	c.mu.Lock()
	c.entries[symbol] = entry{quote: q, fetchedAt: c.now()}
	size := len(c.entries)
	c.mu.Unlock()

	observ.SetGauge("quote_cache_size", float64(size), nil)
}

// Sweep removes every entry older than the TTL and reports how many it evicted.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for symbol, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, symbol)
			evicted++
		}
	}
	if evicted > 0 {
		observ.IncCounterBy("quote_cache_evictions_total", nil, int64(evicted))
		observ.SetGauge("quote_cache_size", float64(len(c.entries)), nil)
	}
	return evicted
}

// Len reports the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RunSweeper sweeps on a fixed interval until ctx is cancelled. The interval
// is deliberately coarser than the TTL; the request path never sweeps.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				observ.Log("cache_sweep", map[string]any{"evicted": n, "size": c.Len()})
			}
		}
	}
}
