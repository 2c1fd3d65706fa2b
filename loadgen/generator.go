// Package loadgen drives synthetic order flow through the engine and
// measures end-to-end submission latency.
package loadgen

import (
	"fmt"
	"math/rand"

	"orderflow/domain/orderbook"
)

// symbolRange is the price band orders for one symbol are drawn from, in
// ticks.
type symbolRange struct {
	symbol string
	low    int64
	high   int64
}

// The default universe: ten symbols with realistic price bands.
var defaultUniverse = []symbolRange{
	{"AAPL", ticks(150), ticks(200)},
	{"GOOGL", ticks(120), ticks(160)},
	{"MSFT", ticks(300), ticks(400)},
	{"AMZN", ticks(100), ticks(150)},
	{"TSLA", ticks(180), ticks(280)},
	{"META", ticks(250), ticks(350)},
	{"NVDA", ticks(400), ticks(600)},
	{"JPM", ticks(130), ticks(170)},
	{"V", ticks(220), ticks(280)},
	{"WMT", ticks(50), ticks(80)},
}

func ticks(dollars int64) int64 {
	return dollars * 10000
}

const (
	minQty = 10
	maxQty = 1000
)

// Generator produces random but reproducible orders. Not safe for concurrent
// use; give each producer goroutine its own generator.
type Generator struct {
	rng      *rand.Rand
	universe []symbolRange
	buyRatio float64
	next     uint64
}

// NewGenerator seeds a generator. The same seed yields the same order
// stream.
func NewGenerator(seed int64, buyRatio float64) *Generator {
	if buyRatio <= 0 || buyRatio >= 1 {
		buyRatio = 0.5
	}
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		universe: defaultUniverse,
		buyRatio: buyRatio,
	}
}

// Next builds one order. IDs are sequential ORD%08d so every order in a run
// is unique and journal replay stays deterministic.
func (g *Generator) Next() *orderbook.Order {
	g.next++
	sr := g.universe[g.rng.Intn(len(g.universe))]

	side := orderbook.Sell
	if g.rng.Float64() < g.buyRatio {
		side = orderbook.Buy
	}

	// Uniform over the band, snapped to cents so books form real levels.
	price := sr.low + g.rng.Int63n(sr.high-sr.low+1)
	price -= price % 100

	qty := int64(minQty + g.rng.Intn(maxQty-minQty+1))

	return orderbook.NewOrder(
		fmt.Sprintf("ORD%08d", g.next),
		sr.symbol,
		side,
		price,
		qty,
	)
}

// NextLine renders the next order in the ingest line format.
func (g *Generator) NextLine() string {
	o := g.Next()
	return fmt.Sprintf("%s,%s,%s,%s,%d",
		o.ID, o.Symbol, o.Side, orderbook.FormatPrice(o.Price), o.Quantity)
}

// Symbols lists the symbols this generator draws from.
func (g *Generator) Symbols() []string {
	out := make([]string, len(g.universe))
	for i, sr := range g.universe {
		out[i] = sr.symbol
	}
	return out
}

// Count reports how many orders have been generated.
func (g *Generator) Count() uint64 {
	return g.next
}
