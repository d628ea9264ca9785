package platform

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

func TestNewSegment(t *testing.T) {
	// Test basic segment creation
	s := newSegment(0, 9, "spi1", false, true, 100)
	if s.firstLed != 0 {
		t.Errorf("Expected FirstLed to be 0, got %d", s.firstLed)
	}
	if s.lastLed != 9 {
		t.Errorf("Expected LastLed to be 9, got %d", s.lastLed)
	}
	if s.spiMultiplex != "spi1" {
		t.Errorf("Expected SpiMultiplex to be 'spi1', got %s", s.spiMultiplex)
	}
	if s.reverse {
		t.Errorf("Expected Reverse to be false, got %t", s.reverse)
	}
	if !s.visible {
		t.Errorf("Expected Visible to be true, got %t", s.visible)
	}
	if len(s.leds) != 10 {
		t.Errorf("Expected 10 leds, got %d", len(s.leds))
	}

	// Test with swapped led indices on creation
	s = newSegment(9, 0, "spi1", false, true, 100)
	if s.firstLed != 0 || s.lastLed != 9 {
		t.Errorf("Expected 0..9 after auto-reversal, got %d..%d", s.firstLed, s.lastLed)
	}

	// Test clamping for first and last led
	s = newSegment(-5, 105, "spi1", false, true, 100)
	if s.firstLed != 0 || s.lastLed != 99 {
		t.Errorf("Expected 0..99 after clamping, got %d..%d", s.firstLed, s.lastLed)
	}

	// Test invisible segment
	s = newSegment(0, 9, "spi1", false, false, 100)
	if s.spiMultiplex != invisibleMultiplex {
		t.Errorf("Expected SpiMultiplex to be '__' for invisible segment, got %s", s.spiMultiplex)
	}
}

func testFrame(n int) []effect.Color {
	frame := make([]effect.Color, n)
	for i := range frame {
		frame[i] = effect.Color{R: byte(i)}
	}
	return frame
}

func TestSetLeds(t *testing.T) {
	s := newSegment(2, 5, "spi1", false, true, 10)
	s.setLeds(testFrame(10))

	expected := []effect.Color{{R: 2}, {R: 3}, {R: 4}, {R: 5}}
	if !reflect.DeepEqual(s.leds, expected) {
		t.Errorf("Expected Leds to be %+v, got %+v", expected, s.leds)
	}
}

func TestSetLedsReversed(t *testing.T) {
	frame := testFrame(10)
	s := newSegment(2, 5, "spi1", true, true, 10)
	s.setLeds(frame)

	expected := []effect.Color{{R: 5}, {R: 4}, {R: 3}, {R: 2}}
	if !reflect.DeepEqual(s.leds, expected) {
		t.Errorf("Expected Leds to be %+v, got %+v", expected, s.leds)
	}
	if !reflect.DeepEqual(frame, testFrame(10)) {
		t.Errorf("Expected the frame to stay unchanged, got %+v", frame)
	}
}

func TestGetLeds(t *testing.T) {
	s := newSegment(0, 9, "spi1", false, true, 100)
	if len(s.getLeds()) != 10 {
		t.Errorf("Expected GetLeds to return 10 leds, got %d", len(s.getLeds()))
	}

	s.visible = false
	if s.getLeds() != nil {
		t.Errorf("Expected GetLeds to return nil for invisible segment, got %+v", s.getLeds())
	}
}

func TestParseDisplaySegments(t *testing.T) {
	display := c.DisplayConfig{
		LedsTotal: 20,
		LedSegments: map[string][]c.SegmentConfig{
			"front": {
				{FirstLed: 5, LastLed: 9, SpiMultiplex: "a"},
				{FirstLed: 15, LastLed: 19, SpiMultiplex: "b", Reverse: true},
			},
			"empty": {},
		},
	}

	segments := parseDisplaySegments(display)
	assert.Len(t, segments, 1, "groups without visible segments are dropped")

	front := segments["front"]
	if assert.Len(t, front, 4) {
		bounds := [][2]int{{0, 4}, {5, 9}, {10, 14}, {15, 19}}
		for i, seg := range front {
			assert.Equal(t, bounds[i], [2]int{seg.firstLed, seg.lastLed})
		}
		assert.False(t, front[0].visible)
		assert.True(t, front[1].visible)
		assert.False(t, front[2].visible)
		assert.True(t, front[3].reverse)
	}
}

func TestParseDisplaySegments_Overlap(t *testing.T) {
	display := c.DisplayConfig{
		LedsTotal: 10,
		LedSegments: map[string][]c.SegmentConfig{
			"default": {
				{FirstLed: 0, LastLed: 5},
				{FirstLed: 5, LastLed: 9},
			},
		},
	}
	assert.Panics(t, func() { parseDisplaySegments(display) })
}
