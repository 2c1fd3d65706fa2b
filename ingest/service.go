package ingest

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"orderflow/domain/orderbook"
	"orderflow/engine"
	"orderflow/infra/cache"
	"orderflow/infra/journal"
	"orderflow/infra/persist"
	"orderflow/infra/sequence"
	"orderflow/metrics"
)

// TradePublisher pushes executed trades onto the low-latency feed. Delivery
// is best effort; the durable path is the persistence outbox.
type TradePublisher interface {
	PublishTrades(ctx context.Context, trades []orderbook.TradeResult) error
}

// Service is the write entry point: every order line flows journal first,
// then through the matching engine, then into cache, store and feed.
type Service struct {
	parser  *Parser
	engine  *engine.MatchingEngine
	journal *journal.Journal
	cache   *cache.OrderCache
	store   *persist.Store
	feed    TradePublisher
	metrics *metrics.Collector
	seq     *sequence.Sequencer
	log     *logrus.Entry
}

// Options carries the optional collaborators. Any nil field disables that
// path; the engine itself is always required.
type Options struct {
	Journal *journal.Journal
	Cache   *cache.OrderCache
	Store   *persist.Store
	Feed    TradePublisher
	Metrics *metrics.Collector
}

func NewService(eng *engine.MatchingEngine, opts Options, log *logrus.Logger) *Service {
	m := opts.Metrics
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Service{
		parser:  NewParser(),
		engine:  eng,
		journal: opts.Journal,
		cache:   opts.Cache,
		store:   opts.Store,
		feed:    opts.Feed,
		metrics: m,
		seq:     sequence.New(0),
		log:     log.WithField("component", "ingest"),
	}
}

// Metrics exposes the collector this service reports into.
func (s *Service) Metrics() *metrics.Collector {
	return s.metrics
}

// ProcessLine parses and submits one raw order line. Malformed lines are
// counted, logged and skipped; they never reach the engine.
func (s *Service) ProcessLine(ctx context.Context, line string) ([]orderbook.TradeResult, error) {
	o, err := s.parser.Parse(line)
	if err != nil {
		s.metrics.Inc("ingest.rejected")
		s.log.WithError(err).WithField("line", line).Debug("rejected line")
		return nil, err
	}
	if err := s.journalSubmit(line); err != nil {
		return nil, err
	}
	return s.Submit(ctx, o)
}

// Submit runs an already-validated order through the engine and fans results
// out to the cache, store and feed.
func (s *Service) Submit(ctx context.Context, o *orderbook.Order) ([]orderbook.TradeResult, error) {
	start := time.Now()
	trades, err := s.engine.SubmitOrder(o)
	s.metrics.RecordLatency("engine.submit", time.Since(start))
	if err != nil {
		s.metrics.Inc("ingest.rejected")
		return nil, err
	}
	s.metrics.Inc("ingest.accepted")
	s.metrics.Add("engine.trades", int64(len(trades)))

	if s.cache != nil {
		s.cache.Put(o)
	}
	if s.store != nil {
		if err := s.store.SaveOrder(o); err != nil {
			s.log.WithError(err).WithField("order", o.ID).Error("order persist failed")
		}
		if err := s.store.SaveTrades(trades); err != nil {
			s.log.WithError(err).Error("trade persist failed")
		}
	}
	if s.feed != nil && len(trades) > 0 {
		if err := s.feed.PublishTrades(ctx, trades); err != nil {
			s.metrics.Inc("feed.errors")
			s.log.WithError(err).Warn("feed publish failed")
		}
	}
	return trades, nil
}

// Cancel journals and executes a cancel. Returns whether an open order was
// actually cancelled; a repeat cancel is a no-op.
func (s *Service) Cancel(symbol, orderID string) (bool, error) {
	if s.journal != nil {
		rec := journal.NewRecord(journal.RecordCancel, s.seq.Next(), []byte(symbol+","+orderID))
		if err := s.journal.Append(rec); err != nil {
			return false, err
		}
	}
	ok := s.engine.CancelOrder(symbol, orderID)
	if ok {
		s.metrics.Inc("ingest.cancelled")
		if s.cache != nil {
			if o, hit := s.engine.LookupOrder(symbol, orderID); hit {
				s.cache.Put(&o)
			} else {
				s.cache.Evict(orderID)
			}
		}
	}
	return ok, nil
}

// LookupOrder serves reads cache first, falling back to the live book.
func (s *Service) LookupOrder(symbol, orderID string) (orderbook.Order, bool) {
	if s.cache != nil {
		if o, ok := s.cache.Get(orderID); ok {
			return o, true
		}
	}
	o, ok := s.engine.LookupOrder(symbol, orderID)
	if ok && s.cache != nil {
		s.cache.Put(&o)
	}
	return o, ok
}

// Summary reports one bulk ingestion run.
type Summary struct {
	Lines    int
	Accepted int
	Rejected int
	Trades   int
}

// ProcessReader streams order lines from r. Empty lines and '#' comments are
// skipped. Persistence is batched to amortize commit cost.
func (s *Service) ProcessReader(ctx context.Context, r io.Reader) (Summary, error) {
	const batchSize = 256

	var (
		sum     Summary
		orders  []*orderbook.Order
		trades  []orderbook.TradeResult
		scanner = bufio.NewScanner(r)
	)

	flush := func() error {
		if s.store != nil {
			if err := s.store.SaveOrders(orders); err != nil {
				return err
			}
			if err := s.store.SaveTrades(trades); err != nil {
				return err
			}
		}
		if s.feed != nil && len(trades) > 0 {
			if err := s.feed.PublishTrades(ctx, trades); err != nil {
				s.metrics.Inc("feed.errors")
				s.log.WithError(err).Warn("feed publish failed")
			}
		}
		orders = orders[:0]
		trades = trades[:0]
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sum.Lines++

		o, err := s.parser.Parse(line)
		if err != nil {
			sum.Rejected++
			s.metrics.Inc("ingest.rejected")
			s.log.WithError(err).WithField("line", line).Debug("rejected line")
			continue
		}
		if err := s.journalSubmit(line); err != nil {
			return sum, err
		}

		start := time.Now()
		ts, err := s.engine.SubmitOrder(o)
		s.metrics.RecordLatency("engine.submit", time.Since(start))
		if err != nil {
			sum.Rejected++
			s.metrics.Inc("ingest.rejected")
			continue
		}
		sum.Accepted++
		sum.Trades += len(ts)
		s.metrics.Inc("ingest.accepted")
		s.metrics.Add("engine.trades", int64(len(ts)))

		if s.cache != nil {
			s.cache.Put(o)
		}
		orders = append(orders, o)
		trades = append(trades, ts...)
		if len(orders) >= batchSize {
			if err := flush(); err != nil {
				return sum, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, err
	}
	return sum, flush()
}

// ReplayJournal rebuilds book state from the journal after a restart. Replay
// drives the engine directly, skipping journaling and persistence of entries
// that are already durable.
func (s *Service) ReplayJournal(dir string) (int, error) {
	replayed := 0
	lastSeq, err := journal.Replay(dir, func(rec *journal.Record) error {
		switch rec.Type {
		case journal.RecordSubmit:
			o, err := s.parser.Parse(string(rec.Data))
			if err != nil {
				// A journaled line was valid when written; treat decay as
				// corruption and stop.
				return err
			}
			if _, err := s.engine.SubmitOrder(o); err != nil {
				return err
			}
		case journal.RecordCancel:
			symbol, id, ok := strings.Cut(string(rec.Data), ",")
			if ok {
				s.engine.CancelOrder(symbol, id)
			}
		}
		replayed++
		return nil
	})
	if err != nil {
		return replayed, err
	}
	s.seq.Reset(lastSeq)
	s.log.WithField("records", replayed).Info("journal replayed")
	return replayed, nil
}

func (s *Service) journalSubmit(line string) error {
	if s.journal == nil {
		return nil
	}
	rec := journal.NewRecord(journal.RecordSubmit, s.seq.Next(), []byte(line))
	return s.journal.Append(rec)
}
