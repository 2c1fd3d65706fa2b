package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult records one match event. Created exactly once by the matching
// engine and never mutated afterwards; ownership passes to the caller.
type TradeResult struct {
	TradeID     string
	BuyOrderID  string
	SellOrderID string
	Symbol      string
	Price       int64 // ticks; the resting order's price
	Quantity    int64
	ExecutedAt  time.Time
}

// PriceDecimal renders the execution price at tick resolution.
func (t TradeResult) PriceDecimal() decimal.Decimal {
	return PriceToDecimal(t.Price)
}

func (t TradeResult) String() string {
	return fmt.Sprintf("%s %s %s @ %s x %d (buy %s / sell %s)",
		t.TradeID, t.Symbol, t.ExecutedAt.Format(time.RFC3339Nano),
		FormatPrice(t.Price), t.Quantity, t.BuyOrderID, t.SellOrderID)
}
