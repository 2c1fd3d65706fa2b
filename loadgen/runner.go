package loadgen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"orderflow/infra/executor"
	"orderflow/ingest"
)

// Runner pushes one profile's worth of orders through the executor pool
// into the ingest service, recording per-order latency.
type Runner struct {
	svc     *ingest.Service
	pool    *executor.Pool
	profile Profile
	log     *logrus.Entry
}

func NewRunner(svc *ingest.Service, pool *executor.Pool, profile Profile, log *logrus.Logger) *Runner {
	return &Runner{
		svc:     svc,
		pool:    pool,
		profile: profile,
		log:     log.WithField("component", "loadgen"),
	}
}

// Run executes the profile to completion or until ctx is cancelled. Producer
// goroutines generate orders at the profile's pace; the executor pool does
// the actual submission so queueing behavior matches production ingestion.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()[:8]
	producers := r.profile.Producers
	if producers <= 0 {
		producers = 1
	}

	r.log.WithFields(logrus.Fields{
		"run":       runID,
		"profile":   r.profile.Name,
		"orders":    r.profile.Orders,
		"pattern":   r.profile.Pattern.String(),
		"producers": producers,
	}).Info("starting load run")

	recorder := NewRecorder()
	var (
		trades  atomic.Int64
		pending sync.WaitGroup
		wg      sync.WaitGroup
	)

	perProducer := r.profile.Orders / producers
	start := time.Now()

	for p := 0; p < producers; p++ {
		n := perProducer
		if p == producers-1 {
			n += r.profile.Orders % producers
		}

		wg.Add(1)
		go func(id, n int) {
			defer wg.Done()

			// Distinct seed streams keep producers from colliding on ids.
			gen := NewGenerator(r.profile.Seed+int64(id)*1_000_003, r.profile.BuyRatio)
			gen.next = uint64(id) * uint64(perProducer+1) * 10
			pace := newPacer(r.profile, r.profile.Seed+int64(id))

			for i := 0; i < n; i++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				o := gen.Next()
				pending.Add(1)
				err := r.pool.Submit(func() {
					defer pending.Done()
					t0 := time.Now()
					ts, err := r.svc.Submit(ctx, o)
					recorder.Record(time.Since(t0))
					if err != nil {
						recorder.RecordError()
						return
					}
					trades.Add(int64(len(ts)))
				})
				if err != nil {
					pending.Done()
					recorder.RecordError()
				}

				if d := pace.interval(); d > 0 {
					time.Sleep(d)
				}
			}
		}(p, n)
	}

	wg.Wait()
	pending.Wait()
	elapsed := time.Since(start)

	rep := recorder.snapshot(elapsed, trades.Load())
	rep.RunID = runID
	rep.Profile = r.profile.Name

	r.log.WithFields(logrus.Fields{
		"run":        runID,
		"orders":     rep.Orders,
		"trades":     rep.Trades,
		"errors":     rep.Errors,
		"elapsed":    rep.Elapsed.Round(time.Millisecond).String(),
		"throughput": int64(rep.Throughput),
	}).Info("load run finished")

	return rep, ctx.Err()
}
