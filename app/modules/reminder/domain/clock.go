package reminderdomain

import "time"

// Clock abstracts time retrieval for scheduling and validation.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock, always in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T. Useful for tests and replays.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
