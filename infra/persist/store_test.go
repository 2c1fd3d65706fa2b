package persist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderflow/domain/orderbook"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTrades(n int) []orderbook.TradeResult {
	out := make([]orderbook.TradeResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, orderbook.TradeResult{
			TradeID:     "T-AAPL-" + string(rune('1'+i)),
			BuyOrderID:  "ORD1",
			SellOrderID: "ORD2",
			Symbol:      "AAPL",
			Price:       1505000,
			Quantity:    int64(10 * (i + 1)),
			ExecutedAt:  time.Unix(0, 1700000000000000000+int64(i)),
		})
	}
	return out
}

func TestOrderRoundTrip(t *testing.T) {
	s := openTestStore(t)

	o := orderbook.NewOrder("ORD1", "AAPL", orderbook.Buy, 1505000, 100)
	require.NoError(t, o.Fill(40))
	require.NoError(t, s.SaveOrder(o))

	got, err := s.FindOrder("ORD1")
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)
	require.Equal(t, o.Symbol, got.Symbol)
	require.Equal(t, o.Side, got.Side)
	require.Equal(t, o.Price, got.Price)
	require.Equal(t, o.Filled, got.Filled)
	require.Equal(t, orderbook.StatusPartiallyFilled, got.Status)
	require.Equal(t, o.CreatedAt.UnixNano(), got.CreatedAt.UnixNano())

	_, err = s.FindOrder("ORD404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBatchSaveAndScan(t *testing.T) {
	s := openTestStore(t)

	orders := []*orderbook.Order{
		orderbook.NewOrder("ORD1", "AAPL", orderbook.Buy, 1505000, 100),
		orderbook.NewOrder("ORD2", "MSFT", orderbook.Sell, 3000000, 50),
		orderbook.NewOrder("ORD3", "AAPL", orderbook.Sell, 1510000, 25),
	}
	require.NoError(t, s.SaveOrders(orders))
	require.NoError(t, s.SaveOrders(nil))

	n, err := s.CountOrders()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	aapl, err := s.OrdersBySymbol("AAPL")
	require.NoError(t, err)
	require.Len(t, aapl, 2)
}

func TestTradeOutboxLifecycle(t *testing.T) {
	s := openTestStore(t)

	trades := sampleTrades(2)
	require.NoError(t, s.SaveTrades(trades))

	// Fresh trades are pending.
	var pending []TradeRecord
	require.NoError(t, s.ScanPendingTrades(func(rec TradeRecord) error {
		pending = append(pending, rec)
		return nil
	}))
	require.Len(t, pending, 2)
	require.Equal(t, PublishNew, pending[0].State)

	// Ack one; it leaves the pending set.
	now := time.Now().UnixNano()
	require.NoError(t, s.UpdateTradeState(trades[0].TradeID, PublishAcked, 1, now))

	pending = pending[:0]
	require.NoError(t, s.ScanPendingTrades(func(rec TradeRecord) error {
		pending = append(pending, rec)
		return nil
	}))
	require.Len(t, pending, 1)
	require.Equal(t, trades[1].TradeID, pending[0].Trade.TradeID)

	rec, err := s.GetTrade(trades[0].TradeID)
	require.NoError(t, err)
	require.Equal(t, PublishAcked, rec.State)
	require.EqualValues(t, 1, rec.Retries)
	require.Equal(t, now, rec.LastAttempt)
	require.Equal(t, trades[0].Quantity, rec.Trade.Quantity)

	// DeleteAcked removes exactly the acknowledged one.
	removed, err := s.DeleteAcked()
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	n, err := s.CountTrades()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveOrder(orderbook.NewOrder("ORD1", "AAPL", orderbook.Buy, 1505000, 100)))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.FindOrder("ORD1")
	require.NoError(t, err)
	require.Equal(t, int64(1505000), got.Price)
}
