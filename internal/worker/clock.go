package worker

import "sync/atomic"

// Clock is a monotonic sequence counter. Every request is stamped with the
// next value when it is submitted, and every update produced for it carries
// the same value, so a caller can tell which request an update answers and
// drop updates older than the last one it applied.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
