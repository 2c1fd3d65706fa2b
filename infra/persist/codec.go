package persist

import (
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"orderflow/domain/orderbook"
)

// Records are stored in protobuf wire format, hand-encoded with protowire.
// Field numbers are part of the on-disk contract; never renumber.

// Order record fields.
const (
	ofID      = 1
	ofSymbol  = 2
	ofSide    = 3
	ofPrice   = 4
	ofQty     = 5
	ofFilled  = 6
	ofStatus  = 7
	ofCreated = 8
	ofUpdated = 9
)

// Trade record fields.
const (
	tfID       = 1
	tfBuyID    = 2
	tfSellID   = 3
	tfSymbol   = 4
	tfPrice    = 5
	tfQty      = 6
	tfExecuted = 7
	tfState    = 8
	tfRetries  = 9
	tfAttempt  = 10
)

var errCorruptRecord = errors.New("persist: corrupt record")

func encodeOrder(o *orderbook.Order) []byte {
	buf := make([]byte, 0, 64+len(o.ID)+len(o.Symbol))
	buf = appendString(buf, ofID, o.ID)
	buf = appendString(buf, ofSymbol, o.Symbol)
	buf = appendVarint(buf, ofSide, uint64(o.Side))
	buf = appendVarint(buf, ofPrice, uint64(o.Price))
	buf = appendVarint(buf, ofQty, uint64(o.Quantity))
	buf = appendVarint(buf, ofFilled, uint64(o.Filled))
	buf = appendVarint(buf, ofStatus, uint64(o.Status))
	buf = appendVarint(buf, ofCreated, uint64(o.CreatedAt.UnixNano()))
	buf = appendVarint(buf, ofUpdated, uint64(o.UpdatedAt.UnixNano()))
	return buf
}

func decodeOrder(b []byte) (orderbook.Order, error) {
	var o orderbook.Order
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return o, errCorruptRecord
		}
		b = b[n:]
		switch num {
		case ofID, ofSymbol:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return o, errCorruptRecord
			}
			b = b[n:]
			if num == ofID {
				o.ID = s
			} else {
				o.Symbol = s
			}
		default:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				// Unknown non-varint field; skip it.
				n = protowire.ConsumeFieldValue(num, typ, b)
				if n < 0 {
					return o, errCorruptRecord
				}
				b = b[n:]
				continue
			}
			b = b[n:]
			switch num {
			case ofSide:
				o.Side = orderbook.Side(v)
			case ofPrice:
				o.Price = int64(v)
			case ofQty:
				o.Quantity = int64(v)
			case ofFilled:
				o.Filled = int64(v)
			case ofStatus:
				o.Status = orderbook.Status(v)
			case ofCreated:
				o.CreatedAt = time.Unix(0, int64(v))
			case ofUpdated:
				o.UpdatedAt = time.Unix(0, int64(v))
			}
		}
	}
	return o, nil
}

func encodeTrade(rec *TradeRecord) []byte {
	t := rec.Trade
	buf := make([]byte, 0, 96)
	buf = appendString(buf, tfID, t.TradeID)
	buf = appendString(buf, tfBuyID, t.BuyOrderID)
	buf = appendString(buf, tfSellID, t.SellOrderID)
	buf = appendString(buf, tfSymbol, t.Symbol)
	buf = appendVarint(buf, tfPrice, uint64(t.Price))
	buf = appendVarint(buf, tfQty, uint64(t.Quantity))
	buf = appendVarint(buf, tfExecuted, uint64(t.ExecutedAt.UnixNano()))
	buf = appendVarint(buf, tfState, uint64(rec.State))
	buf = appendVarint(buf, tfRetries, uint64(rec.Retries))
	buf = appendVarint(buf, tfAttempt, uint64(rec.LastAttempt))
	return buf
}

func decodeTrade(b []byte) (TradeRecord, error) {
	var rec TradeRecord
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return rec, errCorruptRecord
		}
		b = b[n:]
		switch num {
		case tfID, tfBuyID, tfSellID, tfSymbol:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return rec, errCorruptRecord
			}
			b = b[n:]
			switch num {
			case tfID:
				rec.Trade.TradeID = s
			case tfBuyID:
				rec.Trade.BuyOrderID = s
			case tfSellID:
				rec.Trade.SellOrderID = s
			case tfSymbol:
				rec.Trade.Symbol = s
			}
		default:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				n = protowire.ConsumeFieldValue(num, typ, b)
				if n < 0 {
					return rec, errCorruptRecord
				}
				b = b[n:]
				continue
			}
			b = b[n:]
			switch num {
			case tfPrice:
				rec.Trade.Price = int64(v)
			case tfQty:
				rec.Trade.Quantity = int64(v)
			case tfExecuted:
				rec.Trade.ExecutedAt = time.Unix(0, int64(v))
			case tfState:
				rec.State = PublishState(v)
			case tfRetries:
				rec.Retries = uint32(v)
			case tfAttempt:
				rec.LastAttempt = int64(v)
			}
		}
	}
	return rec, nil
}

func appendString(buf []byte, num protowire.Number, s string) []byte {
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, s)
}

func appendVarint(buf []byte, num protowire.Number, v uint64) []byte {
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}
