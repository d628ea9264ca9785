package effect

import (
	"time"

	c "lautenbacher.net/goeffects/config"
)

// SimpleColor shows one steady color, either on the whole region or on
// its first pixel only.
type SimpleColor struct {
	region
	color      Color
	fillBuffer bool
}

func NewSimpleColor(cfg c.SimpleColorConfig, width, height int) *SimpleColor {
	return &SimpleColor{
		region:     region{width: width, height: height},
		color:      ColorFromRGB(cfg.LedRGB),
		fillBuffer: cfg.FillBuffer,
	}
}

// SetColor changes the color shown from the next Update on.
func (s *SimpleColor) SetColor(col Color) {
	s.color = col
}

func (s *SimpleColor) Color() Color {
	return s.color
}

// SimpleColor has no runtime state to reinitialise.
func (s *SimpleColor) Reset(offsetX, offsetY int, now time.Duration) {}

func (s *SimpleColor) Update(offsetX, offsetY int, now time.Duration, buf *DisplayBuffer) {
	if !s.fillBuffer {
		buf.Set(offsetX, offsetY, s.color)
		return
	}
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			buf.Set(x+offsetX, y+offsetY, s.color)
		}
	}
}
