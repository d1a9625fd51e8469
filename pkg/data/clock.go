package data

import "time"

// Clock supplies timestamps for match records and undo-window expiry.
// Injected so tests and replays control time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock backed by time.Now
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant; useful in tests
type FixedClock struct {
	Instant time.Time
}

// Now returns the configured instant
func (c FixedClock) Now() time.Time {
	return c.Instant
}
