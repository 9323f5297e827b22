package effects

import (
	"sync"
	"time"

	"github.com/rickb777/date/v2/timespan"
)

type TimeSpan = timespan.TimeSpan

// NewTimeSpan spans from..to. A reversed pair collapses to an empty span at from.
func NewTimeSpan(from, to time.Time) TimeSpan {
	if to.Before(from) {
		to = from
	}
	return timespan.BetweenTimes(from, to)
}

type TimeBounded interface {
	TimeSpan() TimeSpan
}

// Clock supplies the timestamps recorded on state transitions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock (with Go's monotonic reading attached).
var SystemClock Clock = systemClock{}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
