// Package cache provides the bounded order lookup cache. A miss is a safe
// fallback, never an error; nothing in the matching core depends on it.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"orderflow/domain/orderbook"
)

// OrderCache is a size-bounded LRU keyed by orderId. Values are copies, so
// cached reads never alias book-owned orders.
type OrderCache struct {
	lru    *lru.Cache[string, orderbook.Order]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a cache bounded to size entries, evicting least recently used.
func New(size int) (*OrderCache, error) {
	l, err := lru.New[string, orderbook.Order](size)
	if err != nil {
		return nil, err
	}
	return &OrderCache{lru: l}, nil
}

// Put stores a copy of the order under its id.
func (c *OrderCache) Put(o *orderbook.Order) {
	if o == nil {
		return
	}
	c.lru.Add(o.ID, *o)
}

// Get returns the cached copy, counting the hit or miss.
func (c *OrderCache) Get(orderID string) (orderbook.Order, bool) {
	o, ok := c.lru.Get(orderID)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return o, ok
}

// Evict drops an entry. Missing keys are a no-op.
func (c *OrderCache) Evict(orderID string) {
	c.lru.Remove(orderID)
}

// Len is the current entry count.
func (c *OrderCache) Len() int {
	return c.lru.Len()
}

// Snapshot returns hit/miss counters and current size.
func (c *OrderCache) Snapshot() Stats {
	h := c.hits.Load()
	m := c.misses.Load()
	s := Stats{Hits: h, Misses: m, Size: c.lru.Len()}
	if total := h + m; total > 0 {
		s.HitRate = float64(h) / float64(total)
	}
	return s
}
