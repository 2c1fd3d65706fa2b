package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"orderflow/domain/orderbook"
)

func order(id, symbol string, side orderbook.Side, priceTicks, qty int64) *orderbook.Order {
	return orderbook.NewOrder(id, symbol, side, priceTicks, qty)
}

const p1505 = 1505000 // 150.50

func TestSubmitMatchProducesTrade(t *testing.T) {
	e := New()

	trades, err := e.SubmitOrder(order("ORD1", "AAPL", orderbook.Sell, p1505, 100))
	require.NoError(t, err)
	require.Empty(t, trades)

	trades, err = e.SubmitOrder(order("ORD2", "AAPL", orderbook.Buy, p1505, 100))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	require.Equal(t, "ORD2", tr.BuyOrderID)
	require.Equal(t, "ORD1", tr.SellOrderID)
	require.Equal(t, "AAPL", tr.Symbol)
	require.Equal(t, int64(p1505), tr.Price)
	require.Equal(t, int64(100), tr.Quantity)
	require.Equal(t, "T-AAPL-1", tr.TradeID)
}

func TestSellAggressorSideAssignment(t *testing.T) {
	e := New()

	_, err := e.SubmitOrder(order("ORD1", "AAPL", orderbook.Buy, p1505, 100))
	require.NoError(t, err)

	trades, err := e.SubmitOrder(order("ORD2", "AAPL", orderbook.Sell, p1505, 100))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, "ORD1", trades[0].BuyOrderID)
	require.Equal(t, "ORD2", trades[0].SellOrderID)
}

func TestRejectInvalidOrders(t *testing.T) {
	e := New()

	cases := []*orderbook.Order{
		nil,
		order("", "AAPL", orderbook.Buy, p1505, 100),
		order("ORD1", "", orderbook.Buy, p1505, 100),
		order("ORD1", "AAPL", orderbook.Buy, 0, 100),
		order("ORD1", "AAPL", orderbook.Buy, -5, 100),
		order("ORD1", "AAPL", orderbook.Buy, p1505, 0),
		order("ORD1", "AAPL", orderbook.Buy, p1505, -10),
	}
	for i, o := range cases {
		_, err := e.SubmitOrder(o)
		require.ErrorIs(t, err, orderbook.ErrInvalidOrder, "case %d", i)
	}
	require.Empty(t, e.Symbols(), "rejected orders must not create books")
}

func TestTradeIDsAreMonotonic(t *testing.T) {
	e := New()

	for i := 0; i < 3; i++ {
		_, err := e.SubmitOrder(order(fmt.Sprintf("S%d", i), "AAPL", orderbook.Sell, p1505, 10))
		require.NoError(t, err)
	}
	trades, err := e.SubmitOrder(order("B1", "AAPL", orderbook.Buy, p1505, 30))
	require.NoError(t, err)
	require.Len(t, trades, 3)
	require.Equal(t, "T-AAPL-1", trades[0].TradeID)
	require.Equal(t, "T-AAPL-2", trades[1].TradeID)
	require.Equal(t, "T-AAPL-3", trades[2].TradeID)
	require.Equal(t, uint64(3), e.TradeCount())
}

func TestSymbolsArePartitioned(t *testing.T) {
	e := New()

	_, err := e.SubmitOrder(order("ORD1", "AAPL", orderbook.Sell, p1505, 100))
	require.NoError(t, err)

	// Same price, different symbol: must not match.
	trades, err := e.SubmitOrder(order("ORD2", "MSFT", orderbook.Buy, p1505, 100))
	require.NoError(t, err)
	require.Empty(t, trades)

	stats := e.BookStats()
	require.Equal(t, 1, stats["AAPL"])
	require.Equal(t, 1, stats["MSFT"])
}

func TestCancelOrder(t *testing.T) {
	e := New()

	_, err := e.SubmitOrder(order("ORD1", "AAPL", orderbook.Buy, p1505, 100))
	require.NoError(t, err)

	require.True(t, e.CancelOrder("AAPL", "ORD1"))
	require.False(t, e.CancelOrder("AAPL", "ORD1"))
	require.False(t, e.CancelOrder("AAPL", "ORD404"))
	require.False(t, e.CancelOrder("NOPE", "ORD1"), "unknown symbol")

	_, ok := e.LookupOrder("AAPL", "ORD1")
	require.False(t, ok)
}

func TestQuoteAndDepth(t *testing.T) {
	e := New()

	_, err := e.SubmitOrder(order("ORD1", "AAPL", orderbook.Buy, 1500000, 100))
	require.NoError(t, err)
	_, err = e.SubmitOrder(order("ORD2", "AAPL", orderbook.Sell, 1510000, 50))
	require.NoError(t, err)

	q, ok := e.GetQuote("AAPL")
	require.True(t, ok)
	require.Equal(t, int64(1500000), q.Bid)
	require.Equal(t, int64(1510000), q.Ask)

	_, ok = e.GetQuote("MSFT")
	require.False(t, ok, "unknown symbol has no quote")

	d, ok := e.Depth("AAPL", 5)
	require.True(t, ok)
	require.Len(t, d.Bids, 1)
	require.Len(t, d.Asks, 1)
}

// Concurrent submissions across many symbols: quantity must be conserved and
// no book may end crossed.
func TestConcurrentSubmissions(t *testing.T) {
	e := New()
	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN"}

	const perWorker = 200
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				sym := symbols[(w+i)%len(symbols)]
				side := orderbook.Buy
				if i%2 == 0 {
					side = orderbook.Sell
				}
				price := int64(1500000 + (i%10)*10000)
				id := fmt.Sprintf("W%d-%d", w, i)
				_, err := e.SubmitOrder(order(id, sym, side, price, 10))
				require.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	for _, sym := range symbols {
		require.False(t, e.Book(sym).Crossed(), "book %s crossed", sym)
	}
}

func BenchmarkSubmitOrder(b *testing.B) {
	e := New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := orderbook.Buy
		if i%2 == 0 {
			side = orderbook.Sell
		}
		price := int64(1500000 + (i%20)*10000)
		o := order(fmt.Sprintf("B%d", i), "AAPL", side, price, 10)
		if _, err := e.SubmitOrder(o); err != nil {
			b.Fatal(err)
		}
	}
}
