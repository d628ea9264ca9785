package platform

import (
	"lautenbacher.net/goeffects/effect"
	u "lautenbacher.net/goeffects/util"
)

// Platform defines the interface for abstracting away the real hardware
// from the TUI simulation.
type Platform interface {
	// Start initializes the platform (e.g., opens GPIO/SPI, or starts the TUI).
	Start() error

	// Stop cleans up all platform resources.
	Stop()

	// Ready is closed once the platform can show frames.
	Ready() <-chan bool

	// SetPixel stores one pixel of the next frame.
	SetPixel(index int, col effect.Color)

	// CommitFrame hands the frame built by SetPixel to the display. It
	// never blocks; a frame the display did not pick up in time is
	// replaced and counted as dropped.
	CommitFrame()

	// DroppedFrames returns the number of frames replaced before display.
	DroppedFrames() uint64

	// LedsTotal returns the number of LEDs of the strip.
	LedsTotal() int

	// GetCommandEvents returns a channel that the application can read from
	// to receive commands from keys or buttons.
	GetCommandEvents() <-chan *u.Trigger
}
