package loadgen

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder accumulates per-order submission latency. Safe for concurrent
// producers; the histogram is guarded by a mutex since HDR histograms are
// not thread safe.
type Recorder struct {
	mu     sync.Mutex
	hist   *hdrhistogram.Histogram
	errors int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		// 1us to 10s, 3 significant digits.
		hist: hdrhistogram.New(1, int64(10*time.Second/time.Microsecond), 3),
	}
}

func (r *Recorder) Record(d time.Duration) {
	r.mu.Lock()
	_ = r.hist.RecordValue(d.Microseconds())
	r.mu.Unlock()
}

func (r *Recorder) RecordError() {
	r.mu.Lock()
	r.errors++
	r.mu.Unlock()
}

// Report is the final result of one load run.
type Report struct {
	RunID     string
	Profile   string
	Orders    int64
	Trades    int64
	Errors    int64
	Elapsed   time.Duration
	Throughput float64 // orders/sec

	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
	P999 time.Duration
	Max  time.Duration
}

// snapshot folds the histogram into a report. Caller fills run metadata.
func (r *Recorder) snapshot(elapsed time.Duration, trades int64) Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := func(q float64) time.Duration {
		return time.Duration(r.hist.ValueAtQuantile(q)) * time.Microsecond
	}
	rep := Report{
		Orders:  r.hist.TotalCount(),
		Trades:  trades,
		Errors:  r.errors,
		Elapsed: elapsed,
		P50:     us(50),
		P90:     us(90),
		P95:     us(95),
		P99:     us(99),
		P999:    us(99.9),
		Max:     time.Duration(r.hist.Max()) * time.Microsecond,
	}
	if elapsed > 0 {
		rep.Throughput = float64(rep.Orders) / elapsed.Seconds()
	}
	return rep
}

// String renders the report for the terminal.
func (rep Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", rep.RunID, rep.Profile)
	fmt.Fprintf(&b, "  orders     %d\n", rep.Orders)
	fmt.Fprintf(&b, "  trades     %d\n", rep.Trades)
	fmt.Fprintf(&b, "  errors     %d\n", rep.Errors)
	fmt.Fprintf(&b, "  elapsed    %s\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "  throughput %.0f orders/sec\n", rep.Throughput)
	fmt.Fprintf(&b, "  latency    p50=%s p90=%s p95=%s p99=%s p99.9=%s max=%s\n",
		rep.P50, rep.P90, rep.P95, rep.P99, rep.P999, rep.Max)
	return b.String()
}
