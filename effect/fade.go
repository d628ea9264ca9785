package effect

import "time"

// FadeState tracks the transition of one pixel. Start is the monotonic
// time the current fade began.
type FadeState struct {
	Start  time.Duration
	Color  Color
	Active bool
}

// triangle maps the elapsed part of a period to an intensity that rises
// linearly from 0 to 1 at half the period and falls back to 0.
func triangle(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 1
	}
	if elapsed < 0 || elapsed >= period {
		return 0
	}
	x := float64(elapsed) / float64(period)
	if x < 0.5 {
		return 2 * x
	}
	return 2 * (1 - x)
}
