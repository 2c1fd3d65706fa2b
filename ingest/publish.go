package ingest

import (
	"context"

	"orderflow/domain/orderbook"
)

type multiPublisher []TradePublisher

// Fanout combines publishers into one. Nil entries are skipped; the first
// error is returned after every publisher has been tried.
func Fanout(pubs ...TradePublisher) TradePublisher {
	var live multiPublisher
	for _, p := range pubs {
		if p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil
	}
	if len(live) == 1 {
		return live[0]
	}
	return live
}

func (m multiPublisher) PublishTrades(ctx context.Context, trades []orderbook.TradeResult) error {
	var first error
	for _, p := range m {
		if err := p.PublishTrades(ctx, trades); err != nil && first == nil {
			first = err
		}
	}
	return first
}
