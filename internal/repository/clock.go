package repository

import (
	"sync"
	"time"
)

// Clock hands out change timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock returns strictly increasing UTC instants at microsecond resolution,
// the precision Postgres keeps for timestamptz. If the wall clock stalls or steps back,
// the previous value is bumped by one microsecond instead.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

func newMonotonicClockFrom(now func() time.Time) *MonotonicClock {
	return &MonotonicClock{now: now}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
