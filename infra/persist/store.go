// Package persist is the durable write path. Orders and trades land in a
// pebble keyspace with batched commits; trade rows double as the publish
// outbox drained by the broadcaster. Failures surface to the caller; the
// matching core never blocks on this package.
package persist

import (
	"bytes"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"orderflow/domain/orderbook"
)

// PublishState tracks a trade through the outbox.
type PublishState uint8

const (
	PublishNew PublishState = iota
	PublishSent
	PublishAcked
	PublishFailed
)

func (s PublishState) String() string {
	switch s {
	case PublishNew:
		return "NEW"
	case PublishSent:
		return "SENT"
	case PublishAcked:
		return "ACKED"
	case PublishFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// TradeRecord is a persisted trade plus its outbox state.
type TradeRecord struct {
	Trade       orderbook.TradeResult
	State       PublishState
	Retries     uint32
	LastAttempt int64
}

var (
	orderPrefix = []byte("order/")
	tradePrefix = []byte("trade/")

	// ErrNotFound reports a missing key.
	ErrNotFound = errors.New("persist: not found")
)

// Store wraps a pebble database.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store directory.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "persist: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveOrder writes a single order durably.
func (s *Store) SaveOrder(o *orderbook.Order) error {
	return errors.Wrap(s.db.Set(orderKey(o.ID), encodeOrder(o), pebble.Sync), "persist: save order")
}

// SaveOrders writes a batch of orders with a single commit. Batching keeps
// the commit cost amortized instead of paying a sync per row.
func (s *Store) SaveOrders(orders []*orderbook.Order) error {
	if len(orders) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, o := range orders {
		if err := b.Set(orderKey(o.ID), encodeOrder(o), nil); err != nil {
			return errors.Wrap(err, "persist: batch order")
		}
	}
	return errors.Wrap(b.Commit(pebble.Sync), "persist: commit orders")
}

// SaveTrades appends trades in one batch, entering each into the outbox as
// PublishNew.
func (s *Store) SaveTrades(trades []orderbook.TradeResult) error {
	if len(trades) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for i := range trades {
		rec := TradeRecord{Trade: trades[i], State: PublishNew}
		if err := b.Set(tradeKey(trades[i].TradeID), encodeTrade(&rec), nil); err != nil {
			return errors.Wrap(err, "persist: batch trade")
		}
	}
	return errors.Wrap(b.Commit(pebble.Sync), "persist: commit trades")
}

// FindOrder loads one order by id.
func (s *Store) FindOrder(orderID string) (orderbook.Order, error) {
	val, closer, err := s.db.Get(orderKey(orderID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return orderbook.Order{}, ErrNotFound
		}
		return orderbook.Order{}, errors.Wrap(err, "persist: get order")
	}
	defer closer.Close()
	return decodeOrder(val)
}

// OrdersBySymbol scans the order keyspace for one symbol.
func (s *Store) OrdersBySymbol(symbol string) ([]orderbook.Order, error) {
	var out []orderbook.Order
	err := s.scanPrefix(orderPrefix, func(_, val []byte) error {
		o, err := decodeOrder(val)
		if err != nil {
			return err
		}
		if o.Symbol == symbol {
			out = append(out, o)
		}
		return nil
	})
	return out, err
}

// CountOrders reports the number of persisted orders.
func (s *Store) CountOrders() (int, error) {
	return s.countPrefix(orderPrefix)
}

// CountTrades reports the number of persisted trades.
func (s *Store) CountTrades() (int, error) {
	return s.countPrefix(tradePrefix)
}

// GetTrade loads one trade record by trade id.
func (s *Store) GetTrade(tradeID string) (TradeRecord, error) {
	val, closer, err := s.db.Get(tradeKey(tradeID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return TradeRecord{}, ErrNotFound
		}
		return TradeRecord{}, errors.Wrap(err, "persist: get trade")
	}
	defer closer.Close()
	return decodeTrade(val)
}

// ScanPendingTrades visits every trade still awaiting acknowledgement
// (PublishNew or PublishSent). Used by the broadcaster.
func (s *Store) ScanPendingTrades(fn func(rec TradeRecord) error) error {
	return s.scanPrefix(tradePrefix, func(_, val []byte) error {
		rec, err := decodeTrade(val)
		if err != nil {
			return err
		}
		if rec.State != PublishNew && rec.State != PublishSent {
			return nil
		}
		return fn(rec)
	})
}

// UpdateTradeState moves a trade through the outbox state machine.
func (s *Store) UpdateTradeState(tradeID string, state PublishState, retries uint32, attemptUnixNano int64) error {
	rec, err := s.GetTrade(tradeID)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = attemptUnixNano
	return errors.Wrap(s.db.Set(tradeKey(tradeID), encodeTrade(&rec), pebble.Sync), "persist: update trade")
}

// DeleteAcked removes acknowledged trades from the outbox keyspace.
func (s *Store) DeleteAcked() (int, error) {
	var keys [][]byte
	err := s.scanPrefix(tradePrefix, func(key, val []byte) error {
		rec, err := decodeTrade(val)
		if err != nil {
			return err
		}
		if rec.State == PublishAcked {
			keys = append(keys, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Delete(k, nil); err != nil {
			return 0, errors.Wrap(err, "persist: delete acked")
		}
	}
	return len(keys), errors.Wrap(b.Commit(pebble.Sync), "persist: commit delete")
}

func (s *Store) scanPrefix(prefix []byte, fn func(key, val []byte) error) error {
	upper := append(append([]byte(nil), prefix...), 0xff)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upper,
	})
	if err != nil {
		return errors.Wrap(err, "persist: iterator")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Error(), "persist: scan")
}

func (s *Store) countPrefix(prefix []byte) (int, error) {
	n := 0
	err := s.scanPrefix(prefix, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func orderKey(id string) []byte {
	return append(append([]byte(nil), orderPrefix...), id...)
}

func tradeKey(id string) []byte {
	return append(append([]byte(nil), tradePrefix...), id...)
}
