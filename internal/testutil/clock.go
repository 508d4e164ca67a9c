package testutil

import "time"

// FixedClock returns a constant time so expiry logic is deterministic.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
