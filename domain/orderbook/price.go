package orderbook

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Prices are stored as int64 ticks at 1e-4 resolution. Decimal arithmetic
// stays at the boundary; the hot path compares plain integers.
const PriceScale = 4

var (
	ErrPriceNotPositive = errors.New("orderbook: price must be positive")
	ErrPriceTooFine     = errors.New("orderbook: price has more than 4 decimal places")
)

// PriceFromDecimal converts a decimal price to ticks. The price must be
// positive and representable at tick resolution.
func PriceFromDecimal(d decimal.Decimal) (int64, error) {
	if d.Sign() <= 0 {
		return 0, ErrPriceNotPositive
	}
	shifted := d.Shift(PriceScale)
	if !shifted.IsInteger() {
		return 0, ErrPriceTooFine
	}
	return shifted.IntPart(), nil
}

// PriceToDecimal converts ticks back to a decimal price.
func PriceToDecimal(ticks int64) decimal.Decimal {
	return decimal.New(ticks, -PriceScale)
}

// FormatPrice renders ticks as a decimal string, e.g. 1505000 -> "150.5".
func FormatPrice(ticks int64) string {
	return PriceToDecimal(ticks).String()
}
