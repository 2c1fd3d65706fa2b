// Package executor runs submitted work on a fixed set of workers over a
// bounded queue. Backpressure policy is explicit: the matching core never
// queues, only callers of this pool do.
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Policy decides what Submit does when the queue is full.
type Policy uint8

const (
	// Reject fails the submission with ErrQueueFull.
	Reject Policy = iota
	// CallerRuns executes the task on the submitting goroutine.
	CallerRuns
	// Block waits for queue space.
	Block
)

var (
	ErrQueueFull  = errors.New("executor: queue full")
	ErrShutdown   = errors.New("executor: pool is shut down")
	ErrNilTask    = errors.New("executor: nil task")
	ErrBadWorkers = errors.New("executor: workers and queue size must be positive")
)

// Pool is a bounded worker pool with monitoring counters.
type Pool struct {
	tasks   chan func()
	policy  Policy
	workers int

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64

	wg       sync.WaitGroup
	mu       sync.Mutex
	shutdown bool
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Submitted  int64 `json:"submitted"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
	QueueDepth int   `json:"queue_depth"`
	Workers    int   `json:"workers"`
}

// New starts workers goroutines over a queue of queueSize tasks.
func New(workers, queueSize int, policy Policy) (*Pool, error) {
	if workers <= 0 || queueSize <= 0 {
		return nil, ErrBadWorkers
	}
	p := &Pool{
		tasks:   make(chan func(), queueSize),
		policy:  policy,
		workers: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p, nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
		p.completed.Add(1)
	}
}

// Submit hands a task to the pool. On a full queue the configured policy
// applies; a rejected task is counted and reported, never silently dropped.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		p.rejected.Add(1)
		return ErrShutdown
	}

	switch p.policy {
	case Block:
		// Hold the lock so Shutdown cannot close the channel mid-send.
		p.tasks <- task
		p.mu.Unlock()
		p.submitted.Add(1)
		return nil
	default:
		select {
		case p.tasks <- task:
			p.mu.Unlock()
			p.submitted.Add(1)
			return nil
		default:
		}
		p.mu.Unlock()
	}

	if p.policy == CallerRuns {
		p.submitted.Add(1)
		task()
		p.completed.Add(1)
		return nil
	}
	p.rejected.Add(1)
	return ErrQueueFull
}

// QueueDepth is the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Snapshot returns monitoring counters.
func (p *Pool) Snapshot() Stats {
	return Stats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Rejected:   p.rejected.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workers,
	}
}

// Shutdown stops intake and waits for queued tasks to drain, or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.shutdown {
		p.shutdown = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
