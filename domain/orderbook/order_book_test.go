package orderbook

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func px(s string) int64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	ticks, err := PriceFromDecimal(d)
	if err != nil {
		panic(err)
	}
	return ticks
}

func TestExactMatch(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("150.50"), 100))
	require.NoError(t, err)

	execs, err := b.Submit(NewOrder("ORD2", "AAPL", Buy, px("150.50"), 100))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	require.Equal(t, "ORD1", execs[0].RestingID)
	require.Equal(t, px("150.50"), execs[0].Price)
	require.Equal(t, int64(100), execs[0].Quantity)

	require.Equal(t, 0, b.OrderCount(), "both orders filled, book should be empty")
}

func TestPartialFillRestsRemainder(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("150.50"), 50))
	require.NoError(t, err)

	incoming := NewOrder("ORD2", "AAPL", Buy, px("150.50"), 100)
	execs, err := b.Submit(incoming)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	require.Equal(t, int64(50), execs[0].Quantity)

	require.Equal(t, StatusPartiallyFilled, incoming.Status)
	require.Equal(t, int64(50), incoming.Remaining())

	bid, ok := b.BestBid()
	require.True(t, ok, "remainder should rest on the bid side")
	require.Equal(t, px("150.50"), bid)
}

func TestAggressorPaysRestingPrice(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("150.00"), 100))
	require.NoError(t, err)

	// Buyer is willing to pay more; execution happens at the resting price.
	execs, err := b.Submit(NewOrder("ORD2", "AAPL", Buy, px("151.00"), 100))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	require.Equal(t, px("150.00"), execs[0].Price)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("150.50"), 30))
	require.NoError(t, err)
	_, err = b.Submit(NewOrder("ORD2", "AAPL", Sell, px("150.50"), 30))
	require.NoError(t, err)

	execs, err := b.Submit(NewOrder("ORD3", "AAPL", Buy, px("150.50"), 45))
	require.NoError(t, err)
	require.Len(t, execs, 2)
	require.Equal(t, "ORD1", execs[0].RestingID, "earlier order at a level fills first")
	require.Equal(t, int64(30), execs[0].Quantity)
	require.Equal(t, "ORD2", execs[1].RestingID)
	require.Equal(t, int64(15), execs[1].Quantity)

	// ORD2 keeps its slot with 15 remaining.
	o, ok := b.Lookup("ORD2")
	require.True(t, ok)
	require.Equal(t, int64(15), o.Remaining())
	require.Equal(t, StatusPartiallyFilled, o.Status)
}

func TestPricePriorityAcrossLevels(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("151.00"), 50))
	require.NoError(t, err)
	_, err = b.Submit(NewOrder("ORD2", "AAPL", Sell, px("150.00"), 50))
	require.NoError(t, err)

	execs, err := b.Submit(NewOrder("ORD3", "AAPL", Buy, px("151.00"), 80))
	require.NoError(t, err)
	require.Len(t, execs, 2)
	require.Equal(t, "ORD2", execs[0].RestingID, "cheapest ask fills first")
	require.Equal(t, px("150.00"), execs[0].Price)
	require.Equal(t, "ORD1", execs[1].RestingID)
	require.Equal(t, px("151.00"), execs[1].Price)
	require.Equal(t, int64(30), execs[1].Quantity)
}

func TestNoMatchOutsideLimit(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("151.00"), 100))
	require.NoError(t, err)

	execs, err := b.Submit(NewOrder("ORD2", "AAPL", Buy, px("150.00"), 100))
	require.NoError(t, err)
	require.Empty(t, execs)
	require.Equal(t, 2, b.OrderCount())
	require.False(t, b.Crossed())
}

func TestDuplicateOrderID(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Buy, px("150.00"), 100))
	require.NoError(t, err)

	_, err = b.Submit(NewOrder("ORD1", "AAPL", Buy, px("150.00"), 100))
	require.ErrorIs(t, err, ErrDuplicateOrderID)
	require.Equal(t, 1, b.OrderCount())
}

func TestCancelIsIdempotent(t *testing.T) {
	b := New("AAPL")

	o := NewOrder("ORD1", "AAPL", Buy, px("150.00"), 100)
	_, err := b.Submit(o)
	require.NoError(t, err)

	require.True(t, b.Cancel("ORD1"))
	require.Equal(t, StatusCancelled, o.Status)
	require.False(t, b.Cancel("ORD1"), "second cancel is a no-op")
	require.False(t, b.Cancel("ORD999"), "unknown id is a no-op")
	require.Equal(t, 0, b.OrderCount())
}

func TestCancelledOrderNeverMatches(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Sell, px("150.00"), 100))
	require.NoError(t, err)
	require.True(t, b.Cancel("ORD1"))

	execs, err := b.Submit(NewOrder("ORD2", "AAPL", Buy, px("150.00"), 100))
	require.NoError(t, err)
	require.Empty(t, execs)
}

func TestBookNeverCrossed(t *testing.T) {
	b := New("AAPL")

	prices := []string{"150.00", "150.50", "149.90", "150.10", "150.30"}
	for i, p := range prices {
		side := Buy
		if i%2 == 1 {
			side = Sell
		}
		_, err := b.Submit(NewOrder(fmt.Sprintf("ORD%d", i), "AAPL", side, px(p), 10+int64(i)))
		require.NoError(t, err)
		require.False(t, b.Crossed(), "book crossed after order %d", i)
	}
}

func TestSnapshotAggregatesLevels(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(NewOrder("ORD1", "AAPL", Buy, px("150.00"), 40))
	require.NoError(t, err)
	_, err = b.Submit(NewOrder("ORD2", "AAPL", Buy, px("150.00"), 60))
	require.NoError(t, err)
	_, err = b.Submit(NewOrder("ORD3", "AAPL", Buy, px("149.50"), 25))
	require.NoError(t, err)
	_, err = b.Submit(NewOrder("ORD4", "AAPL", Sell, px("151.00"), 10))
	require.NoError(t, err)

	d := b.Snapshot(0)
	require.Len(t, d.Bids, 2)
	require.Equal(t, px("150.00"), d.Bids[0].Price, "bids are best first")
	require.Equal(t, int64(100), d.Bids[0].Qty)
	require.Equal(t, 2, d.Bids[0].Orders)
	require.Equal(t, px("149.50"), d.Bids[1].Price)
	require.Len(t, d.Asks, 1)

	top := b.TopOfBook()
	require.True(t, top.HasBid)
	require.True(t, top.HasAsk)
	require.Equal(t, px("150.00"), top.Bid)
	require.Equal(t, px("151.00"), top.Ask)
}

func TestSweepManyLevels(t *testing.T) {
	b := New("AAPL")

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("ORD%d", i)
		_, err := b.Submit(NewOrder(id, "AAPL", Sell, px("150.00")+int64(i)*10000, 10))
		require.NoError(t, err)
	}

	incoming := NewOrder("ORD99", "AAPL", Buy, px("200.00"), 95)
	execs, err := b.Submit(incoming)
	require.NoError(t, err)
	require.Len(t, execs, 10)
	require.Equal(t, int64(0), incoming.Remaining())

	// 95 filled across 9 full levels and one partial.
	var total int64
	for _, e := range execs {
		total += e.Quantity
	}
	require.Equal(t, int64(95), total)
	require.Equal(t, 1, b.OrderCount())
}

func TestOrderFillInvariants(t *testing.T) {
	o := NewOrder("ORD1", "AAPL", Buy, px("150.00"), 100)

	require.NoError(t, o.Fill(40))
	require.Equal(t, StatusPartiallyFilled, o.Status)
	require.ErrorIs(t, o.Fill(70), ErrOverfill)
	require.Equal(t, int64(40), o.Filled, "failed fill must not mutate")
	require.NoError(t, o.Fill(60))
	require.Equal(t, StatusFilled, o.Status)
	require.ErrorIs(t, o.Fill(1), ErrOrderTerminal)
	require.False(t, o.Cancel(), "filled order cannot be cancelled")
}

func TestPriceConversion(t *testing.T) {
	d := decimal.RequireFromString("150.5001")
	ticks, err := PriceFromDecimal(d)
	require.NoError(t, err)
	require.Equal(t, int64(1505001), ticks)
	require.Equal(t, "150.5001", FormatPrice(ticks))

	_, err = PriceFromDecimal(decimal.RequireFromString("150.50001"))
	require.ErrorIs(t, err, ErrPriceTooFine)
	_, err = PriceFromDecimal(decimal.Zero)
	require.ErrorIs(t, err, ErrPriceNotPositive)
	_, err = PriceFromDecimal(decimal.RequireFromString("-1"))
	require.ErrorIs(t, err, ErrPriceNotPositive)
}
