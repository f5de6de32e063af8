package domain

import "time"

// Clock supplies wall-clock time. Timer computations and the dispatch sweep
// read time only through a Clock so tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time truncated to whole seconds, the
// resolution rows are stored at.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
