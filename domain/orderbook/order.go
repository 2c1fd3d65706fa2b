package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a limit order. Once inserted into a book it is owned by that book
// and mutated only while the book's lock is held; next/prev are the intrusive
// FIFO links of its price level.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Price     int64 // ticks, see PriceScale
	Quantity  int64
	Filled    int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	next *Order
	prev *Order
}

// NewOrder builds a NEW order. Price and quantity validation happens at
// submission; the constructor only stamps timestamps.
func NewOrder(id, symbol string, side Side, price, qty int64) *Order {
	now := time.Now()
	return &Order{
		ID:        id,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

// PriceDecimal renders the limit price at tick resolution.
func (o *Order) PriceDecimal() decimal.Decimal {
	return PriceToDecimal(o.Price)
}

// Fill applies an execution of qty. Filled is monotonically non-decreasing
// and never exceeds Quantity; status follows the fill-state rule.
func (o *Order) Fill(qty int64) error {
	if o.Status.Terminal() {
		return ErrOrderTerminal
	}
	if qty <= 0 || qty > o.Remaining() {
		return ErrOverfill
	}
	o.Filled += qty
	if o.Filled == o.Quantity {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel transitions to CANCELLED. Returns false if already terminal.
func (o *Order) Cancel() bool {
	if o.Status.Terminal() {
		return false
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return true
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %s x %d (filled %d, %s)",
		o.ID, o.Symbol, o.Side, FormatPrice(o.Price), o.Quantity, o.Filled, o.Status)
}
