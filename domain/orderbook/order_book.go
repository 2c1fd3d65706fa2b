package orderbook

import "sync"

// OrderBook holds resting liquidity for one symbol: bids keyed by price
// descending, asks ascending, FIFO within a level. Every public method runs
// under the book's own mutex; unrelated symbols never share a lock. After any
// completed operation the book is never crossed.
type OrderBook struct {
	symbol string

	mu    sync.Mutex
	bids  *levelTree
	asks  *levelTree
	index map[string]*Order // orderId -> resting order, for O(log n) removal
}

// Execution is one resting order hit while matching an incoming order.
// The price is the resting order's price.
type Execution struct {
	RestingID string
	Price     int64
	Quantity  int64
}

// Quote is a best-bid/best-ask snapshot.
type Quote struct {
	Symbol string
	Bid    int64
	Ask    int64
	HasBid bool
	HasAsk bool
}

// LevelSummary is one aggregated price level of a depth snapshot.
type LevelSummary struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth is an immutable snapshot of the top of the book, taken under the lock.
type Depth struct {
	Symbol string         `json:"symbol"`
	Bids   []LevelSummary `json:"bids"`
	Asks   []LevelSummary `json:"asks"`
}

// New creates an empty book for a symbol.
func New(symbol string) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		bids:   newLevelTree(),
		asks:   newLevelTree(),
		index:  make(map[string]*Order),
	}
}

func (b *OrderBook) Symbol() string { return b.symbol }

// Add inserts a resting order at the tail of its side/price FIFO.
// The order must have remaining quantity and a fresh id.
func (b *OrderBook) Add(o *Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(o)
}

func (b *OrderBook) addLocked(o *Order) error {
	if o.Remaining() <= 0 || o.Status.Terminal() {
		return ErrInvalidOrder
	}
	if _, ok := b.index[o.ID]; ok {
		return ErrDuplicateOrderID
	}
	lvl := b.sideTree(o.Side).upsert(o.Price)
	lvl.enqueue(o)
	b.index[o.ID] = o
	return nil
}

// Remove unlinks the order from its price level via the index.
// Returns false if the id is not resting. Used for cancellation and for
// extracting a resting order during a match.
func (b *OrderBook) Remove(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(orderID) != nil
}

func (b *OrderBook) removeLocked(orderID string) *Order {
	o, ok := b.index[orderID]
	if !ok {
		return nil
	}
	tree := b.sideTree(o.Side)
	lvl := tree.find(o.Price)
	if lvl != nil {
		lvl.unlink(o)
		if lvl.empty() {
			tree.delete(lvl.price)
		}
	}
	delete(b.index, orderID)
	return o
}

// Cancel marks a resting order CANCELLED and removes it.
// Returns false for unknown or already-terminal ids; never mutates on a miss.
func (b *OrderBook) Cancel(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.index[orderID]
	if !ok || o.Status.Terminal() {
		return false
	}
	b.removeLocked(orderID)
	o.Cancel()
	return true
}

// Submit matches the incoming order against opposite-side liquidity, best
// price first and FIFO within a level, bounded by the incoming limit price.
// A leftover remainder rests in the book. The entire step runs under one
// lock acquisition, so no caller observes a crossed book.
func (b *OrderBook) Submit(incoming *Order) ([]Execution, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if incoming.Price <= 0 || incoming.Quantity <= 0 || incoming.Remaining() <= 0 {
		return nil, ErrInvalidOrder
	}
	if _, ok := b.index[incoming.ID]; ok {
		return nil, ErrDuplicateOrderID
	}

	var execs []Execution
	for incoming.Remaining() > 0 {
		lvl := b.bestOpposite(incoming)
		if lvl == nil {
			break
		}
		resting := lvl.head
		qty := incoming.Remaining()
		if r := resting.Remaining(); r < qty {
			qty = r
		}

		// qty is bounded by both remainders, so neither fill can fail.
		_ = incoming.Fill(qty)
		_ = resting.Fill(qty)
		lvl.totalQty -= qty

		execs = append(execs, Execution{
			RestingID: resting.ID,
			Price:     lvl.price,
			Quantity:  qty,
		})

		if resting.Remaining() == 0 {
			lvl.unlink(resting)
			delete(b.index, resting.ID)
			if lvl.empty() {
				b.sideTree(resting.Side).delete(lvl.price)
			}
		}
	}

	if incoming.Remaining() > 0 {
		if err := b.addLocked(incoming); err != nil {
			return execs, err
		}
	}
	return execs, nil
}

// bestOpposite returns the best matchable opposite level, or nil when the
// opposite side is empty or no level is compatible with the limit price.
func (b *OrderBook) bestOpposite(incoming *Order) *priceLevel {
	if incoming.Side == Buy {
		lvl := b.asks.min()
		if lvl == nil || lvl.price > incoming.Price {
			return nil
		}
		return lvl
	}
	lvl := b.bids.max()
	if lvl == nil || lvl.price < incoming.Price {
		return nil
	}
	return lvl
}

// BestBid returns the highest bid price, or false if the side is empty.
func (b *OrderBook) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if lvl := b.bids.max(); lvl != nil {
		return lvl.price, true
	}
	return 0, false
}

// BestAsk returns the lowest ask price, or false if the side is empty.
func (b *OrderBook) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if lvl := b.asks.min(); lvl != nil {
		return lvl.price, true
	}
	return 0, false
}

// TopOfBook snapshots both sides in a single critical section.
func (b *OrderBook) TopOfBook() Quote {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := Quote{Symbol: b.symbol}
	if lvl := b.bids.max(); lvl != nil {
		q.Bid = lvl.price
		q.HasBid = true
	}
	if lvl := b.asks.min(); lvl != nil {
		q.Ask = lvl.price
		q.HasAsk = true
	}
	return q
}

// OrderCount is the total number of resting orders.
func (b *OrderBook) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.index)
}

// Lookup returns a copy of a resting order, so callers never alias
// book-owned state.
func (b *OrderBook) Lookup(orderID string) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.index[orderID]
	if !ok {
		return Order{}, false
	}
	cp := *o
	cp.next = nil
	cp.prev = nil
	return cp, true
}

// Snapshot aggregates up to maxLevels per side, best price first.
// maxLevels <= 0 means all levels.
func (b *OrderBook) Snapshot(maxLevels int) Depth {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := Depth{Symbol: b.symbol}
	collect := func(lvl *priceLevel) LevelSummary {
		return LevelSummary{Price: lvl.price, Qty: lvl.totalQty, Orders: lvl.orderCount}
	}
	b.bids.descend(func(lvl *priceLevel) bool {
		d.Bids = append(d.Bids, collect(lvl))
		return maxLevels <= 0 || len(d.Bids) < maxLevels
	})
	b.asks.ascend(func(lvl *priceLevel) bool {
		d.Asks = append(d.Asks, collect(lvl))
		return maxLevels <= 0 || len(d.Asks) < maxLevels
	})
	return d
}

// Crossed reports best bid >= best ask. It must be false after every
// completed operation.
func (b *OrderBook) Crossed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bid := b.bids.max()
	ask := b.asks.min()
	if bid == nil || ask == nil {
		return false
	}
	return bid.price >= ask.price
}

func (b *OrderBook) sideTree(s Side) *levelTree {
	if s == Buy {
		return b.bids
	}
	return b.asks
}
