// Package feed publishes trade events to Kafka on the low-latency path.
// Delivery here is best effort; the durable path is the broadcaster outbox.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"orderflow/domain/orderbook"
)

// TradeEvent is the wire shape of one published trade.
type TradeEvent struct {
	V           int    `json:"v"`
	TradeID     string `json:"trade_id"`
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buy_order_id"`
	SellOrderID string `json:"sell_order_id"`
	Price       string `json:"price"`
	Quantity    int64  `json:"qty"`
	ExecutedAt  int64  `json:"executed_at"`
}

// Producer wraps a kafka-go writer keyed by symbol so one symbol's trades
// stay ordered within a partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishTrades sends one message per trade.
func (p *Producer) PublishTrades(ctx context.Context, trades []orderbook.TradeResult) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		ev := TradeEvent{
			V:           1,
			TradeID:     t.TradeID,
			Symbol:      t.Symbol,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       orderbook.FormatPrice(t.Price),
			Quantity:    t.Quantity,
			ExecutedAt:  t.ExecutedAt.UnixNano(),
		}
		value, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(t.Symbol),
			Value: value,
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
