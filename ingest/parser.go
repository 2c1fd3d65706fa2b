// Package ingest turns raw order text into domain orders and feeds them
// through the journal, cache, engine and persistence collaborators.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orderflow/domain/orderbook"
)

// Line format: orderId,symbol,side,price,quantity
// Example:     ORD00000001,AAPL,BUY,150.50,100
const fieldCount = 5

// Compiled once; id validation runs on every line.
var orderIDPattern = regexp.MustCompile(`^ORD[0-9]+$`)

// ParseError reports a malformed input line. It is recovered at the
// ingestion boundary: the line is skipped and counted, and no Order is
// constructed. It never reaches the matching core.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ingest: bad %s: %s", e.Field, e.Reason)
}

// Parser converts CSV order lines into Orders.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse builds an Order from one line, or returns a *ParseError.
func (p *Parser) Parse(line string) (*orderbook.Order, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != fieldCount {
		return nil, &ParseError{
			Field:  "line",
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(parts)),
		}
	}
	return BuildOrder(parts[0], parts[1], parts[2], parts[3], parts[4])
}

// BuildOrder validates raw fields and constructs an Order. Shared by the
// line parser and the RPC surface, which receives fields pre-split.
func BuildOrder(id, symbol, side, price, qty string) (*orderbook.Order, error) {
	if !orderIDPattern.MatchString(id) {
		return nil, &ParseError{Field: "orderId", Reason: "must match ORD<digits>, got " + strconv.Quote(id)}
	}
	if symbol == "" {
		return nil, &ParseError{Field: "symbol", Reason: "must not be empty"}
	}
	s, err := orderbook.ParseSide(side)
	if err != nil {
		return nil, &ParseError{Field: "side", Reason: err.Error()}
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, &ParseError{Field: "price", Reason: "not a decimal: " + strconv.Quote(price)}
	}
	ticks, err := orderbook.PriceFromDecimal(d)
	if err != nil {
		return nil, &ParseError{Field: "price", Reason: err.Error()}
	}
	q, err := strconv.ParseInt(qty, 10, 64)
	if err != nil {
		return nil, &ParseError{Field: "quantity", Reason: "not an integer: " + strconv.Quote(qty)}
	}
	if q <= 0 {
		return nil, &ParseError{Field: "quantity", Reason: "must be positive"}
	}
	return orderbook.NewOrder(id, symbol, s, ticks, q), nil
}
