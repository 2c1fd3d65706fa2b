// Package broadcaster drains the trade outbox to Kafka with at-least-once
// delivery: scan pending, mark SENT, publish, mark ACKED. A failed send is
// retried on the next pass.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"orderflow/domain/orderbook"
	"orderflow/infra/persist"
)

type Broadcaster struct {
	store    *persist.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *logrus.Entry
}

// Event mirrors the outbox trade on the wire.
type Event struct {
	V           int    `json:"v"`
	TradeID     string `json:"trade_id"`
	Symbol      string `json:"symbol"`
	BuyOrderID  string `json:"buy_order_id"`
	SellOrderID string `json:"sell_order_id"`
	Price       string `json:"price"`
	Quantity    int64  `json:"qty"`
	ExecutedAt  int64  `json:"executed_at"`
}

func New(
	store *persist.Store,
	brokers []string,
	topic string,
	interval time.Duration,
	log *logrus.Logger,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log.WithField("component", "broadcaster"),
	}, nil
}

// Run drains the outbox on a ticker until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("started")
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.store.ScanPendingTrades(func(rec persist.TradeRecord) error {
		now := time.Now().UnixNano()
		id := rec.Trade.TradeID

		if err := b.store.UpdateTradeState(id, persist.PublishSent, rec.Retries, now); err != nil {
			return err
		}

		value, err := json.Marshal(eventFromTrade(rec.Trade))
		if err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(rec.Trade.Symbol),
			Value: sarama.ByteEncoder(value),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.WithError(err).WithField("trade", id).Warn("publish failed, will retry")
			// Leave SENT; the next pass retries it.
			return b.store.UpdateTradeState(id, persist.PublishSent, rec.Retries+1, now)
		}
		return b.store.UpdateTradeState(id, persist.PublishAcked, rec.Retries, now)
	})
	if err != nil {
		b.log.WithError(err).Warn("outbox scan failed")
	}
}

func eventFromTrade(t orderbook.TradeResult) Event {
	return Event{
		V:           1,
		TradeID:     t.TradeID,
		Symbol:      t.Symbol,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Price:       orderbook.FormatPrice(t.Price),
		Quantity:    t.Quantity,
		ExecutedAt:  t.ExecutedAt.UnixNano(),
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
