package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"orderflow/domain/orderbook"
)

func TestPutGetEvict(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	o := orderbook.NewOrder("ORD1", "AAPL", orderbook.Buy, 1505000, 100)
	c.Put(o)

	got, ok := c.Get("ORD1")
	require.True(t, ok)
	require.Equal(t, "ORD1", got.ID)

	// The cached value is a copy; mutating the source must not leak through.
	require.NoError(t, o.Fill(50))
	got, _ = c.Get("ORD1")
	require.EqualValues(t, 0, got.Filled)

	c.Evict("ORD1")
	_, ok = c.Get("ORD1")
	require.False(t, ok)

	c.Evict("ORD404") // no-op
	c.Put(nil)        // no-op
	require.Equal(t, 0, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c, err := New(3)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		c.Put(orderbook.NewOrder(fmt.Sprintf("ORD%d", i), "AAPL", orderbook.Buy, 1505000, 10))
	}
	// Touch ORD1 so ORD2 becomes the oldest.
	_, ok := c.Get("ORD1")
	require.True(t, ok)

	c.Put(orderbook.NewOrder("ORD4", "AAPL", orderbook.Buy, 1505000, 10))
	require.Equal(t, 3, c.Len())

	_, ok = c.Get("ORD2")
	require.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("ORD1")
	require.True(t, ok)
}

func TestHitMissCounters(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	c.Put(orderbook.NewOrder("ORD1", "AAPL", orderbook.Buy, 1505000, 10))
	c.Get("ORD1")
	c.Get("ORD1")
	c.Get("MISS")

	stats := c.Snapshot()
	require.EqualValues(t, 2, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
	require.Equal(t, 1, stats.Size)
	require.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}
