package orderbook

import "errors"

var (
	// ErrInvalidOrder rejects a submission before any book mutation.
	ErrInvalidOrder = errors.New("orderbook: invalid order")

	// ErrDuplicateOrderID rejects an insert whose id is already resting.
	ErrDuplicateOrderID = errors.New("orderbook: duplicate order id")

	// ErrOrderTerminal rejects mutation of a FILLED or CANCELLED order.
	ErrOrderTerminal = errors.New("orderbook: order is terminal")

	// ErrOverfill rejects a fill larger than the remaining quantity.
	ErrOverfill = errors.New("orderbook: fill exceeds remaining quantity")
)
