// Package engine routes submissions to per-symbol order books and runs the
// matching algorithm under price-time priority.
package engine

import (
	"strconv"
	"sync"
	"time"

	"orderflow/domain/orderbook"
	"orderflow/infra/sequence"
)

// MatchingEngine owns the symbol -> OrderBook registry. The registry lock is
// short-lived and only guards lazy creation; it is never held together with
// a book lock, so unrelated symbols proceed fully in parallel while
// operations on one symbol are totally ordered by that book's lock.
type MatchingEngine struct {
	mu    sync.RWMutex
	books map[string]*orderbook.OrderBook
	seq   *sequence.Sequencer
}

// New creates an engine with an empty registry.
func New() *MatchingEngine {
	return &MatchingEngine{
		books: make(map[string]*orderbook.OrderBook),
		seq:   sequence.New(0),
	}
}

// Book returns the existing book or atomically creates one per symbol.
// Concurrent first access for a new symbol never creates duplicates.
func (e *MatchingEngine) Book(symbol string) *orderbook.OrderBook {
	e.mu.RLock()
	b, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = orderbook.New(symbol)
	e.books[symbol] = b
	return b
}

// SubmitOrder validates the order, matches it against resting liquidity and
// rests any remainder. It returns the trades produced, in execution order.
// Invalid orders are rejected before any book mutation. The engine performs
// no I/O and holds only the target book's lock for the match itself.
func (e *MatchingEngine) SubmitOrder(o *orderbook.Order) ([]orderbook.TradeResult, error) {
	if o == nil || o.ID == "" || o.Symbol == "" || o.Price <= 0 || o.Quantity <= 0 {
		return nil, orderbook.ErrInvalidOrder
	}

	book := e.Book(o.Symbol)
	execs, err := book.Submit(o)
	if err != nil {
		return nil, err
	}

	if len(execs) == 0 {
		return nil, nil
	}
	trades := make([]orderbook.TradeResult, 0, len(execs))
	now := time.Now()
	for _, ex := range execs {
		t := orderbook.TradeResult{
			TradeID:    e.nextTradeID(o.Symbol),
			Symbol:     o.Symbol,
			Price:      ex.Price,
			Quantity:   ex.Quantity,
			ExecutedAt: now,
		}
		if o.Side == orderbook.Buy {
			t.BuyOrderID = o.ID
			t.SellOrderID = ex.RestingID
		} else {
			t.BuyOrderID = ex.RestingID
			t.SellOrderID = o.ID
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// CancelOrder removes a resting order and marks it CANCELLED. Unknown ids,
// already-terminal orders and unknown symbols all return false; the second
// cancel of the same id is a no-op, not an error.
func (e *MatchingEngine) CancelOrder(symbol, orderID string) bool {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	return book.Cancel(orderID)
}

// GetQuote returns a best-bid/best-ask snapshot without mutating the book.
func (e *MatchingEngine) GetQuote(symbol string) (orderbook.Quote, bool) {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if !ok {
		return orderbook.Quote{Symbol: symbol}, false
	}
	return book.TopOfBook(), true
}

// Depth returns an aggregated depth snapshot for a symbol.
func (e *MatchingEngine) Depth(symbol string, maxLevels int) (orderbook.Depth, bool) {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if !ok {
		return orderbook.Depth{Symbol: symbol}, false
	}
	return book.Snapshot(maxLevels), true
}

// LookupOrder returns a copy of a resting order.
func (e *MatchingEngine) LookupOrder(symbol, orderID string) (orderbook.Order, bool) {
	e.mu.RLock()
	book, ok := e.books[symbol]
	e.mu.RUnlock()
	if !ok {
		return orderbook.Order{}, false
	}
	return book.Lookup(orderID)
}

// BookStats returns per-symbol resting order counts for monitoring.
func (e *MatchingEngine) BookStats() map[string]int {
	e.mu.RLock()
	books := make([]*orderbook.OrderBook, 0, len(e.books))
	for _, b := range e.books {
		books = append(books, b)
	}
	e.mu.RUnlock()

	// Book locks are taken one at a time, after the registry lock is gone.
	stats := make(map[string]int, len(books))
	for _, b := range books {
		stats[b.Symbol()] = b.OrderCount()
	}
	return stats
}

// Symbols lists the symbols with a registered book.
func (e *MatchingEngine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	return out
}

// nextTradeID builds "T-<symbol>-<n>" from the process-local sequencer.
func (e *MatchingEngine) nextTradeID(symbol string) string {
	n := e.seq.Next()
	buf := make([]byte, 0, 2+len(symbol)+1+20)
	buf = append(buf, 'T', '-')
	buf = append(buf, symbol...)
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, n, 10)
	return string(buf)
}

// TradeCount reports how many trade ids have been issued.
func (e *MatchingEngine) TradeCount() uint64 {
	return e.seq.Current()
}
