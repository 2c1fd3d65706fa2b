// Package pb defines the RPC wire contract. Messages are encoded in
// protobuf wire format by hand with protowire, so the schema lives in this
// file instead of a generated one. Field numbers are frozen; never renumber.
package pb

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pkg/errors"
)

var errCorruptMessage = errors.New("pb: corrupt message")

// Message is implemented by every wire type in this package.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

// Trade is one execution as reported to clients.
type Trade struct {
	TradeId     string // 1
	BuyOrderId  string // 2
	SellOrderId string // 3
	Symbol      string // 4
	Price       string // 5, decimal string
	Quantity    int64  // 6
	ExecutedAt  int64  // 7, unix nanos
}

// SubmitOrderRequest carries one order. Price travels as a decimal string;
// the server owns tick conversion.
type SubmitOrderRequest struct {
	OrderId  string // 1
	Symbol   string // 2
	Side     string // 3, "BUY" or "SELL"
	Price    string // 4
	Quantity int64  // 5
}

type SubmitOrderResponse struct {
	Status string   // 1
	Trades []*Trade // 2
}

type CancelOrderRequest struct {
	Symbol  string // 1
	OrderId string // 2
}

type CancelOrderResponse struct {
	Cancelled bool // 1
}

type QuoteRequest struct {
	Symbol string // 1
}

type QuoteResponse struct {
	Symbol string // 1
	Bid    string // 2, empty when absent
	Ask    string // 3, empty when absent
}

type StatsRequest struct{}

// BookStat is the resting order count for one symbol.
type BookStat struct {
	Symbol        string // 1
	RestingOrders int64  // 2
}

type StatsResponse struct {
	Books      []*BookStat // 1
	TradeCount uint64      // 2
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func (m *Trade) MarshalWire() []byte {
	b := make([]byte, 0, 96)
	b = appendString(b, 1, m.TradeId)
	b = appendString(b, 2, m.BuyOrderId)
	b = appendString(b, 3, m.SellOrderId)
	b = appendString(b, 4, m.Symbol)
	b = appendString(b, 5, m.Price)
	b = appendVarint(b, 6, uint64(m.Quantity))
	b = appendVarint(b, 7, uint64(m.ExecutedAt))
	return b
}

func (m *Trade) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.TradeId = string(field)
		case 2:
			m.BuyOrderId = string(field)
		case 3:
			m.SellOrderId = string(field)
		case 4:
			m.Symbol = string(field)
		case 5:
			m.Price = string(field)
		case 6:
			m.Quantity = int64(varint(field))
		case 7:
			m.ExecutedAt = int64(varint(field))
		}
		return nil
	})
}

func (m *SubmitOrderRequest) MarshalWire() []byte {
	b := make([]byte, 0, 64)
	b = appendString(b, 1, m.OrderId)
	b = appendString(b, 2, m.Symbol)
	b = appendString(b, 3, m.Side)
	b = appendString(b, 4, m.Price)
	b = appendVarint(b, 5, uint64(m.Quantity))
	return b
}

func (m *SubmitOrderRequest) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.OrderId = string(field)
		case 2:
			m.Symbol = string(field)
		case 3:
			m.Side = string(field)
		case 4:
			m.Price = string(field)
		case 5:
			m.Quantity = int64(varint(field))
		}
		return nil
	})
}

func (m *SubmitOrderResponse) MarshalWire() []byte {
	b := make([]byte, 0, 64)
	b = appendString(b, 1, m.Status)
	for _, t := range m.Trades {
		b = appendBytes(b, 2, t.MarshalWire())
	}
	return b
}

func (m *SubmitOrderResponse) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.Status = string(field)
		case 2:
			var t Trade
			if err := t.UnmarshalWire(field); err != nil {
				return err
			}
			m.Trades = append(m.Trades, &t)
		}
		return nil
	})
}

func (m *CancelOrderRequest) MarshalWire() []byte {
	b := make([]byte, 0, 32)
	b = appendString(b, 1, m.Symbol)
	b = appendString(b, 2, m.OrderId)
	return b
}

func (m *CancelOrderRequest) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.Symbol = string(field)
		case 2:
			m.OrderId = string(field)
		}
		return nil
	})
}

func (m *CancelOrderResponse) MarshalWire() []byte {
	var v uint64
	if m.Cancelled {
		v = 1
	}
	return appendVarint(nil, 1, v)
}

func (m *CancelOrderResponse) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		if num == 1 {
			m.Cancelled = varint(field) != 0
		}
		return nil
	})
}

func (m *QuoteRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.Symbol)
}

func (m *QuoteRequest) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		if num == 1 {
			m.Symbol = string(field)
		}
		return nil
	})
}

func (m *QuoteResponse) MarshalWire() []byte {
	b := make([]byte, 0, 48)
	b = appendString(b, 1, m.Symbol)
	b = appendString(b, 2, m.Bid)
	b = appendString(b, 3, m.Ask)
	return b
}

func (m *QuoteResponse) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.Symbol = string(field)
		case 2:
			m.Bid = string(field)
		case 3:
			m.Ask = string(field)
		}
		return nil
	})
}

func (m *StatsRequest) MarshalWire() []byte        { return nil }
func (m *StatsRequest) UnmarshalWire(b []byte) error { return nil }

func (m *BookStat) MarshalWire() []byte {
	b := make([]byte, 0, 24)
	b = appendString(b, 1, m.Symbol)
	b = appendVarint(b, 2, uint64(m.RestingOrders))
	return b
}

func (m *BookStat) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			m.Symbol = string(field)
		case 2:
			m.RestingOrders = int64(varint(field))
		}
		return nil
	})
}

func (m *StatsResponse) MarshalWire() []byte {
	b := make([]byte, 0, 64)
	for _, bs := range m.Books {
		b = appendBytes(b, 1, bs.MarshalWire())
	}
	b = appendVarint(b, 2, m.TradeCount)
	return b
}

func (m *StatsResponse) UnmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch num {
		case 1:
			var bs BookStat
			if err := bs.UnmarshalWire(field); err != nil {
				return err
			}
			m.Books = append(m.Books, &bs)
		case 2:
			m.TradeCount = varint(field)
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Wire helpers
// ---------------------------------------------------------------------------

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// walkFields iterates the wire stream and hands each field's raw value to fn:
// the payload for bytes fields, the varint bytes for varint fields. Unknown
// field types are skipped.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, field []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errCorruptMessage
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return errCorruptMessage
			}
			if err := fn(num, typ, v); err != nil {
				return err
			}
			b = b[n:]
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return errCorruptMessage
			}
			if err := fn(num, typ, b[:n]); err != nil {
				return err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errCorruptMessage
			}
			b = b[n:]
		}
	}
	return nil
}

func varint(field []byte) uint64 {
	v, _ := protowire.ConsumeVarint(field)
	return v
}
