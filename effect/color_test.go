package effect

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestColorFromRGB(t *testing.T) {
	assert.Equal(t, Color{R: 85, G: 185, B: 255}, ColorFromRGB([]float64{85, 185, 255}))
	assert.Equal(t, Color{R: 0, G: 255, B: 128}, ColorFromRGB([]float64{-3, 300, 127.6}), "values are clamped and rounded")
	assert.Equal(t, Color{R: 10}, ColorFromRGB([]float64{10}), "missing components are black")
	assert.Equal(t, Color{}, ColorFromRGB(nil))
}

func TestColorHex(t *testing.T) {
	col := Color{R: 0x12, G: 0x34, B: 0x56}
	assert.Equal(t, 0x123456, col.Hex())
	assert.Equal(t, col, ColorFromHex(0x123456))
	assert.Equal(t, Color{R: 255, G: 255, B: 255}, ColorFromHex(0xFFFFFF))
}

func TestColorIsEmpty(t *testing.T) {
	assert.True(t, Color{}.IsEmpty())
	assert.False(t, Color{B: 1}.IsEmpty())
}

func TestColorScale(t *testing.T) {
	col := Color{R: 200, G: 100, B: 10}
	assert.Equal(t, Color{R: 100, G: 50, B: 5}, col.Scale(0.5))
	assert.Equal(t, Color{}, col.Scale(0))
	assert.Equal(t, Color{R: 255, G: 200, B: 20}, col.Scale(2), "scaling saturates at 255")
	assert.Equal(t, col, col.Scale(1))
}

func TestRandomTint(t *testing.T) {
	rng := newRng(1)
	for i := 0; i < 100; i++ {
		col := RandomTint(rng, 0.25, Color{})
		assert.Equal(t, byte(255), max(col.R, col.G, col.B), "tints are fully bright")
		assert.GreaterOrEqual(t, min(col.R, col.G, col.B), byte(190), "low saturation stays near white")
	}
}

func TestRandomColorIsDeterministicPerSeed(t *testing.T) {
	a := newRng(7)
	b := newRng(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, RandomColor(a), RandomColor(b))
	}
}
