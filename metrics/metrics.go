// Package metrics collects counters and latency histograms for the engine.
// Counters are plain atomics; latency uses HDR histograms so tail percentiles
// stay accurate under load.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector owns a set of named counters and timers. Zero globals; every
// component receives the collector it should report to.
type Collector struct {
	mu       sync.Mutex
	counters map[string]*atomic.Int64
	timers   map[string]*hdrhistogram.Histogram
	started  time.Time
}

func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]*atomic.Int64),
		timers:   make(map[string]*hdrhistogram.Histogram),
		started:  time.Now(),
	}
}

// Counter returns the named counter, creating it on first use.
func (c *Collector) Counter(name string) *atomic.Int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctr, ok := c.counters[name]
	if !ok {
		ctr = &atomic.Int64{}
		c.counters[name] = ctr
	}
	return ctr
}

// Inc bumps the named counter by one.
func (c *Collector) Inc(name string) {
	c.Counter(name).Add(1)
}

// Add bumps the named counter by delta.
func (c *Collector) Add(name string, delta int64) {
	c.Counter(name).Add(delta)
}

// RecordLatency records one duration into the named timer. Values are
// recorded in microseconds; the histogram tracks 1us to 1 minute.
func (c *Collector) RecordLatency(name string, d time.Duration) {
	c.mu.Lock()
	h, ok := c.timers[name]
	if !ok {
		h = hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
		c.timers[name] = h
	}
	_ = h.RecordValue(d.Microseconds())
	c.mu.Unlock()
}

// Time runs fn and records its wall time into the named timer.
func (c *Collector) Time(name string, fn func()) {
	start := time.Now()
	fn()
	c.RecordLatency(name, time.Since(start))
}

// LatencyStats summarizes one timer in microseconds.
type LatencyStats struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean_us"`
	P50   int64   `json:"p50_us"`
	P90   int64   `json:"p90_us"`
	P95   int64   `json:"p95_us"`
	P99   int64   `json:"p99_us"`
	P999  int64   `json:"p999_us"`
	Max   int64   `json:"max_us"`
}

// Snapshot is a point-in-time copy of every counter and timer.
type Snapshot struct {
	Uptime   time.Duration           `json:"uptime_ns"`
	Counters map[string]int64        `json:"counters"`
	Timers   map[string]LatencyStats `json:"timers"`
}

// Snapshot copies out current values. Histograms keep accumulating.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Uptime:   time.Since(c.started),
		Counters: make(map[string]int64, len(c.counters)),
		Timers:   make(map[string]LatencyStats, len(c.timers)),
	}
	for name, ctr := range c.counters {
		snap.Counters[name] = ctr.Load()
	}
	for name, h := range c.timers {
		snap.Timers[name] = LatencyStats{
			Count: h.TotalCount(),
			Mean:  h.Mean(),
			P50:   h.ValueAtQuantile(50),
			P90:   h.ValueAtQuantile(90),
			P95:   h.ValueAtQuantile(95),
			P99:   h.ValueAtQuantile(99),
			P999:  h.ValueAtQuantile(99.9),
			Max:   h.Max(),
		}
	}
	return snap
}

// Report renders a plain-text summary, counters first, then timers.
func (s Snapshot) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime: %s\n", s.Uptime.Round(time.Millisecond))

	names := make([]string, 0, len(s.Counters))
	for name := range s.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%-28s %d\n", name, s.Counters[name])
	}

	names = names[:0]
	for name := range s.Timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := s.Timers[name]
		fmt.Fprintf(&b,
			"%-28s n=%d mean=%.1fus p50=%dus p90=%dus p95=%dus p99=%dus p99.9=%dus max=%dus\n",
			name, t.Count, t.Mean, t.P50, t.P90, t.P95, t.P99, t.P999, t.Max)
	}
	return b.String()
}
