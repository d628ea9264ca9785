package effect

import (
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is one pixel value with 8 bit per channel. The zero value is
// black.
type Color struct {
	R byte
	G byte
	B byte
}

// ColorFromRGB converts a configured [r, g, b] list. Missing or out of
// range components are clamped.
func ColorFromRGB(rgb []float64) Color {
	var c [3]byte
	for i := 0; i < 3 && i < len(rgb); i++ {
		c[i] = clampByte(rgb[i])
	}
	return Color{R: c[0], G: c[1], B: c[2]}
}

// ColorFromHex converts 0xRRGGBB.
func ColorFromHex(v int) Color {
	return Color{R: byte(v >> 16), G: byte(v >> 8), B: byte(v)}
}

// Hex returns the color as 0xRRGGBB.
func (c Color) Hex() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// True if all components are zero, false otherwise
func (c Color) IsEmpty() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Scale multiplies every channel by f, clamped to [0, 255].
func (c Color) Scale(f float64) Color {
	return Color{
		R: clampByte(float64(c.R) * f),
		G: clampByte(float64(c.G) * f),
		B: clampByte(float64(c.B) * f),
	}
}

// RandomColor returns a color with every channel drawn uniformly.
func RandomColor(rng *rand.Rand) Color {
	v := rng.Uint32()
	return Color{R: byte(v), G: byte(v >> 8), B: byte(v >> 16)}
}

// RandomTint returns a fully bright color of random hue with the given
// saturation. If the conversion does not yield a valid color, fallback
// is returned.
func RandomTint(rng *rand.Rand, saturation float64, fallback Color) Color {
	col := colorful.Hsv(rng.Float64()*360, saturation, 1)
	if !col.IsValid() {
		col = col.Clamped()
		if !col.IsValid() {
			return fallback
		}
	}
	r, g, b := col.RGB255()
	return Color{R: r, G: g, B: b}
}

func clampByte(v float64) byte {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(math.Round(v))
}
