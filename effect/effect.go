// Package effect contains the animation algorithms that render into a
// DisplayBuffer.
//
// Every Effect is driven by monotonic time only. Reset starts a fresh
// run at a given time and must initialise all runtime state; Update
// writes the frame for the given time into the buffer region starting at
// (offsetX, offsetY). Updates may arrive at irregular intervals, so all
// animation is computed from time differences and never from the number
// of calls. Effects never fail: they operate on fixed-size arenas
// allocated at construction.
package effect

import (
	"fmt"
	"time"
)

type Effect interface {
	Reset(offsetX, offsetY int, now time.Duration)
	Update(offsetX, offsetY int, now time.Duration, buf *DisplayBuffer)
}

// Kind enumerates the effects that take part in the effect cycle. The
// values are the indices used for selection.
type Kind int

const (
	KindSimpleColor Kind = iota
	KindNightSky
	KindRandomPixels
	KindFadingPixels

	// Number of effects in the cycle
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindSimpleColor:
		return "SimpleColor"
	case KindNightSky:
		return "NightSky"
	case KindRandomPixels:
		return "RandomPixels"
	case KindFadingPixels:
		return "FadingPixels"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// region is the rectangle an effect was configured for. It maps local
// coordinates to arena indices.
type region struct {
	width  int
	height int
}

func (r region) size() int {
	return r.width * r.height
}

func (r region) xy(i int) (int, int) {
	return i % r.width, i / r.width
}
