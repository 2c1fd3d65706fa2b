// Package marketdata fans executed trades out to websocket subscribers.
package marketdata

import (
	"context"
	"sync"

	"orderflow/domain/orderbook"
)

// Subscription is one subscriber's buffered delivery channel.
type Subscription[T any] struct {
	ch chan T
}

// C is the receive side; it closes on Unsubscribe.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Hub is a fan-out of values to any number of subscribers. A slow subscriber
// drops messages rather than stalling the publisher.
type Hub[T any] struct {
	mu   sync.RWMutex
	subs map[*Subscription[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

func (h *Hub[T]) Subscribe(buffer int) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub[T]) Unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

func (h *Hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

// SubscriberCount reports how many subscriptions are live.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// TradeHub adapts a Hub to the ingest publish path so executed trades reach
// websocket clients.
type TradeHub struct {
	*Hub[orderbook.TradeResult]
}

func NewTradeHub() *TradeHub {
	return &TradeHub{Hub: NewHub[orderbook.TradeResult]()}
}

func (h *TradeHub) PublishTrades(_ context.Context, trades []orderbook.TradeResult) error {
	for _, t := range trades {
		h.Broadcast(t)
	}
	return nil
}
