package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"orderflow/domain/orderbook"
	"orderflow/engine"
	"orderflow/infra/cache"
	"orderflow/infra/journal"
)

func newTestService(t *testing.T, jnl *journal.Journal) *Service {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	c, err := cache.New(128)
	require.NoError(t, err)

	return NewService(engine.New(), Options{
		Journal: jnl,
		Cache:   c,
	}, log)
}

func TestProcessLineMatches(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	trades, err := svc.ProcessLine(ctx, "ORD1,AAPL,SELL,150.50,100")
	require.NoError(t, err)
	require.Empty(t, trades)

	trades, err = svc.ProcessLine(ctx, "ORD2,AAPL,BUY,150.50,100")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, int64(100), trades[0].Quantity)
}

func TestProcessLineRejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ProcessLine(context.Background(), "not,a,valid,line")
	require.Error(t, err)
	require.EqualValues(t, 1, svc.Metrics().Counter("ingest.rejected").Load())
}

func TestProcessReaderSkipsBadLines(t *testing.T) {
	svc := newTestService(t, nil)

	input := strings.Join([]string{
		"# header comment",
		"ORD1,AAPL,SELL,150.50,100",
		"",
		"garbage line",
		"ORD2,AAPL,BUY,150.50,60",
		"ORD2,AAPL,BUY,150.50,60", // duplicate id
	}, "\n")

	sum, err := svc.ProcessReader(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 4, sum.Lines)
	require.Equal(t, 2, sum.Accepted)
	require.Equal(t, 2, sum.Rejected)
	require.Equal(t, 1, sum.Trades)
}

func TestLookupUsesCache(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ProcessLine(context.Background(), "ORD1,AAPL,BUY,150.50,100")
	require.NoError(t, err)

	o, ok := svc.LookupOrder("AAPL", "ORD1")
	require.True(t, ok)
	require.Equal(t, "ORD1", o.ID)
}

func TestCancelUpdatesState(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ProcessLine(context.Background(), "ORD1,AAPL,BUY,150.50,100")
	require.NoError(t, err)

	ok, err := svc.Cancel("AAPL", "ORD1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Cancel("AAPL", "ORD1")
	require.NoError(t, err)
	require.False(t, ok, "repeat cancel is a no-op")
}

func TestJournalReplayRestoresBook(t *testing.T) {
	dir := t.TempDir()

	jnl, err := journal.Open(journal.Config{Dir: dir})
	require.NoError(t, err)

	svc := newTestService(t, jnl)
	ctx := context.Background()

	_, err = svc.ProcessLine(ctx, "ORD1,AAPL,SELL,150.50,100")
	require.NoError(t, err)
	_, err = svc.ProcessLine(ctx, "ORD2,AAPL,BUY,150.50,40")
	require.NoError(t, err)
	_, err = svc.ProcessLine(ctx, "ORD3,MSFT,BUY,300.00,10")
	require.NoError(t, err)
	ok, err := svc.Cancel("MSFT", "ORD3")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, jnl.Close())

	// Fresh service, same journal dir: state must come back identically.
	restored := newTestService(t, nil)
	n, err := restored.ReplayJournal(dir)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	o, ok := restored.LookupOrder("AAPL", "ORD1")
	require.True(t, ok)
	require.Equal(t, int64(60), o.Remaining())
	require.Equal(t, orderbook.StatusPartiallyFilled, o.Status)

	_, ok = restored.LookupOrder("MSFT", "ORD3")
	require.False(t, ok, "cancel must replay too")
}

func TestFanoutPublishesToAll(t *testing.T) {
	var a, b recordingPublisher
	pub := Fanout(nil, &a, nil, &b)
	require.NotNil(t, pub)

	trades := []orderbook.TradeResult{{TradeID: "T-AAPL-1"}}
	require.NoError(t, pub.PublishTrades(context.Background(), trades))
	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
}

type recordingPublisher struct {
	calls int
}

func (r *recordingPublisher) PublishTrades(context.Context, []orderbook.TradeResult) error {
	r.calls++
	return nil
}
