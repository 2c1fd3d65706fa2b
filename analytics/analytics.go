// Package analytics computes aggregate statistics over executed trades.
// All functions are pure; callers pass the trade slice they care about.
package analytics

import (
	"github.com/shopspring/decimal"

	"orderflow/domain/orderbook"
)

// AveragePrice is the unweighted mean execution price. Zero trades yield
// decimal zero.
func AveragePrice(trades []orderbook.TradeResult) decimal.Decimal {
	if len(trades) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for i := range trades {
		sum = sum.Add(trades[i].PriceDecimal())
	}
	return sum.Div(decimal.NewFromInt(int64(len(trades))))
}

// TotalNotional sums price*quantity across trades.
func TotalNotional(trades []orderbook.TradeResult) decimal.Decimal {
	total := decimal.Zero
	for i := range trades {
		t := &trades[i]
		total = total.Add(t.PriceDecimal().Mul(decimal.NewFromInt(t.Quantity)))
	}
	return total
}

// VolumeBySymbol sums executed quantity per symbol.
func VolumeBySymbol(trades []orderbook.TradeResult) map[string]int64 {
	out := make(map[string]int64)
	for i := range trades {
		out[trades[i].Symbol] += trades[i].Quantity
	}
	return out
}

// VWAP is the volume-weighted average price. Zero volume yields decimal zero.
func VWAP(trades []orderbook.TradeResult) decimal.Decimal {
	var volume int64
	notional := decimal.Zero
	for i := range trades {
		t := &trades[i]
		notional = notional.Add(t.PriceDecimal().Mul(decimal.NewFromInt(t.Quantity)))
		volume += t.Quantity
	}
	if volume == 0 {
		return decimal.Zero
	}
	return notional.Div(decimal.NewFromInt(volume))
}
