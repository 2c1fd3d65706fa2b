package loadgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"orderflow/domain/orderbook"
	"orderflow/ingest"
)

func TestGeneratedOrdersAreValid(t *testing.T) {
	g := NewGenerator(42, 0.5)
	symbols := make(map[string]bool)
	for _, s := range g.Symbols() {
		symbols[s] = true
	}

	for i := 0; i < 1000; i++ {
		o := g.Next()
		require.True(t, strings.HasPrefix(o.ID, "ORD"))
		require.True(t, symbols[o.Symbol], "unknown symbol %s", o.Symbol)
		require.Greater(t, o.Price, int64(0))
		require.GreaterOrEqual(t, o.Quantity, int64(minQty))
		require.LessOrEqual(t, o.Quantity, int64(maxQty))
		require.Zero(t, o.Price%100, "prices snap to cents")
	}
	require.EqualValues(t, 1000, g.Count())
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(7, 0.5)
	b := NewGenerator(7, 0.5)
	for i := 0; i < 100; i++ {
		oa, ob := a.Next(), b.Next()
		require.Equal(t, oa.ID, ob.ID)
		require.Equal(t, oa.Symbol, ob.Symbol)
		require.Equal(t, oa.Side, ob.Side)
		require.Equal(t, oa.Price, ob.Price)
		require.Equal(t, oa.Quantity, ob.Quantity)
	}
}

func TestBuyRatioIsRespected(t *testing.T) {
	g := NewGenerator(1, 0.8)
	buys := 0
	const n = 5000
	for i := 0; i < n; i++ {
		if g.Next().Side == orderbook.Buy {
			buys++
		}
	}
	require.InDelta(t, 0.8, float64(buys)/n, 0.05)
}

func TestNextLineParsesBack(t *testing.T) {
	g := NewGenerator(3, 0.5)
	p := ingest.NewParser()
	for i := 0; i < 100; i++ {
		_, err := p.Parse(g.NextLine())
		require.NoError(t, err)
	}
}

func TestProfilesResolve(t *testing.T) {
	for _, name := range []string{"light", "medium", "heavy"} {
		p, err := ProfileByName(name)
		require.NoError(t, err)
		require.Equal(t, name, p.Name)
		require.Greater(t, p.Orders, 0)
	}
	_, err := ProfileByName("extreme")
	require.Error(t, err)
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("burst")
	require.NoError(t, err)
	require.Equal(t, Burst, p)
	_, err = ParsePattern("wavy")
	require.Error(t, err)
}

func TestPacerIntervals(t *testing.T) {
	profile := Profile{Orders: 100, Rate: 1000, Pattern: Constant}
	p := newPacer(profile, 1)
	for i := 0; i < 10; i++ {
		require.Equal(t, p.interval().Milliseconds(), int64(1))
	}

	unthrottled := newPacer(Profile{Orders: 100, Rate: 0, Pattern: Constant}, 1)
	require.Zero(t, unthrottled.interval())
}
