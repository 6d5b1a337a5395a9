package engine

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock holds simulated elapsed time and the creation-order sequence.
//
// The elapsed time only moves forward through Advance (or back to zero through
// Reset). It is not synchronized on its own; the Engine serializes every call.
// The sequence is atomic and never resets, so AddedAt values stay unique for
// the lifetime of a battle file.
type Clock struct {
	now time.Duration
	seq atomic.Int64
}

// NewClock creates a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a saved position.
func NewClockAt(now time.Duration, seq int64) *Clock {
	c := &Clock{now: now}
	c.seq.Store(seq)
	return c
}

// Now returns the simulated elapsed time.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Advance moves the clock forward by delta. Non-positive deltas, and deltas
// that would carry the clock past the largest Duration, are ignored and
// reported as false.
func (c *Clock) Advance(delta time.Duration) bool {
	if delta <= 0 || delta > c.Headroom() {
		return false
	}
	c.now += delta
	return true
}

// Headroom is how far the clock can still advance.
func (c *Clock) Headroom() time.Duration {
	return time.Duration(math.MaxInt64) - c.now
}

// Reset returns the elapsed time to zero. The sequence is kept.
func (c *Clock) Reset() {
	c.now = 0
}

// Next returns the next creation-order value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Seq returns the last issued creation-order value.
func (c *Clock) Seq() int64 {
	return c.seq.Load()
}
