package control

import "time"

// Clock is the monotonic time source for the scheduler and all effects.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	start time.Time
}

// NewClock returns a Clock counting from the moment of the call. It
// reads the monotonic clock, so wall clock changes do not affect it.
func NewClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (m *monotonicClock) Now() time.Duration {
	return time.Since(m.start)
}
