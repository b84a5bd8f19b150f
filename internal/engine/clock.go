package engine

import "sync/atomic"

// Sequencer hands out the numbers a Bus stamps on events. Next never
// returns the same number twice; Current reports the last one handed out.
// testutil.DeterministicClock is the test implementation.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the Sequencer a Bus falls back to. It counts in memory and
// never reads wall time, so two runs of the same proposals carry the same
// sequence numbers.
type Clock atomic.Int64

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt returns a clock that has already handed out last; its first
// Next is last+1.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.counter().Store(last)
	return c
}

// Next implements Sequencer.
func (c *Clock) Next() int64 { return c.counter().Add(1) }

// Current implements Sequencer.
func (c *Clock) Current() int64 { return c.counter().Load() }

func (c *Clock) counter() *atomic.Int64 { return (*atomic.Int64)(c) }
