package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunsSubmittedTasks(t *testing.T) {
	p, err := New(4, 16, Block)
	require.NoError(t, err)

	var n atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()

	require.EqualValues(t, 100, n.Load())
	require.NoError(t, p.Shutdown(context.Background()))

	stats := p.Snapshot()
	require.EqualValues(t, 100, stats.Submitted)
	require.EqualValues(t, 100, stats.Completed)
	require.EqualValues(t, 0, stats.Rejected)
	require.Equal(t, 4, stats.Workers)
}

func TestRejectPolicy(t *testing.T) {
	p, err := New(1, 1, Reject)
	require.NoError(t, err)

	block := make(chan struct{})
	started := make(chan struct{})
	// Occupy the worker, then fill the queue.
	require.NoError(t, p.Submit(func() { close(started); <-block }))
	<-started
	require.NoError(t, p.Submit(func() {}))

	err = p.Submit(func() {})
	require.ErrorIs(t, err, ErrQueueFull)
	require.EqualValues(t, 1, p.Snapshot().Rejected)

	close(block)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestCallerRunsPolicy(t *testing.T) {
	p, err := New(1, 1, CallerRuns)
	require.NoError(t, err)

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(started); <-block }))
	<-started
	require.NoError(t, p.Submit(func() {}))

	// Queue is full: this one must run on the calling goroutine.
	ran := false
	require.NoError(t, p.Submit(func() { ran = true }))
	require.True(t, ran)

	close(block)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSubmitAfterShutdown(t *testing.T) {
	p, err := New(1, 1, Block)
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	err = p.Submit(func() {})
	require.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownDrainsQueue(t *testing.T) {
	p, err := New(1, 8, Block)
	require.NoError(t, err)

	var n atomic.Int64
	for i := 0; i < 8; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			n.Add(1)
		}))
	}
	require.NoError(t, p.Shutdown(context.Background()))
	require.EqualValues(t, 8, n.Load(), "queued tasks must finish before shutdown returns")
}

func TestShutdownHonorsContext(t *testing.T) {
	p, err := New(1, 1, Block)
	require.NoError(t, err)

	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
}

func TestBadConfiguration(t *testing.T) {
	_, err := New(0, 10, Block)
	require.ErrorIs(t, err, ErrBadWorkers)
	_, err = New(4, 0, Block)
	require.ErrorIs(t, err, ErrBadWorkers)

	p, err := New(1, 1, Block)
	require.NoError(t, err)
	require.ErrorIs(t, p.Submit(nil), ErrNilTask)
	require.NoError(t, p.Shutdown(context.Background()))
}
