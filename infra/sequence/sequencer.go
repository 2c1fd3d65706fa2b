// Package sequence provides process-local monotonic id generation.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic sequence numbers. It backs trade-id
// and journal-sequence generation: a counter is orders of magnitude cheaper
// than random UUIDs and replay-safe, which is all a single-process venue
// needs.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will issue start+1 first.
// After journal replay, start is the last replayed sequence.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer to a specific value. Only used after replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
