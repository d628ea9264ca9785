package platform

import (
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/exp/maps"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

// invisibleMultiplex marks the filler segments that cover LEDs no
// configured segment shows
const invisibleMultiplex = "__"

// segment represents a single LED segment.
type segment struct {
	firstLed     int
	lastLed      int
	visible      bool
	reverse      bool
	spiMultiplex string
	leds         []effect.Color
}

// parseDisplaySegments builds the segment groups of the display. Every
// group covers the whole strip: gaps between the configured segments are
// filled with invisible segments. Groups without a visible segment are
// dropped.
func parseDisplaySegments(displayConfig c.DisplayConfig) map[string][]*segment {
	segments := make(map[string][]*segment)

	for name, segarray := range displayConfig.LedSegments {
		segments[name] = nil
		for _, seg := range segarray {
			segments[name] = append(segments[name], newSegment(seg.FirstLed, seg.LastLed, seg.SpiMultiplex, seg.Reverse, true, displayConfig.LedsTotal))
		}
	}

	for name, segarray := range segments {
		all := make([]bool, displayConfig.LedsTotal)

		for _, seg := range segarray {
			for i := seg.firstLed; i <= seg.lastLed; i++ {
				if all[i] {
					panic(fmt.Sprintf("Overlapping display segments at index %d", i))
				}
				all[i] = true
			}
		}

		start := -1
		for index, elem := range all {
			if start == -1 && !elem {
				start = index
			} else if start != -1 && elem {
				segments[name] = append(segments[name], newSegment(start, index-1, invisibleMultiplex, false, false, displayConfig.LedsTotal))
				start = -1
			}
		}
		if start != -1 {
			segments[name] = append(segments[name], newSegment(start, len(all)-1, invisibleMultiplex, false, false, displayConfig.LedsTotal))
		}

		sort.Slice(segments[name], func(i, j int) bool { return segments[name][i].firstLed < segments[name][j].firstLed })
	}

	maps.DeleteFunc(segments, func(name string, segarray []*segment) bool {
		for _, seg := range segarray {
			if seg.visible {
				return false
			}
		}
		slog.Warn("Ignoring segment group without visible segments", "group", name)
		return true
	})
	return segments
}

// newSegment creates a new segment instance.
func newSegment(firstled, lastled int, spimultiplex string, reverse bool, visible bool, ledsTotal int) *segment {
	if firstled > lastled {
		slog.Warn("First led index is bigger than last led index - reversing", "first", firstled, "last", lastled)
		firstled, lastled = lastled, firstled
	}
	if !visible {
		spimultiplex = invisibleMultiplex
	}
	inst := segment{
		firstLed:     clamp(firstled, ledsTotal),
		lastLed:      clamp(lastled, ledsTotal),
		visible:      visible,
		reverse:      reverse,
		spiMultiplex: spimultiplex,
	}
	inst.leds = make([]effect.Color, inst.lastLed-inst.firstLed+1)
	return &inst
}

// setLeds copies the segment's part of the frame, applying reversal if
// configured. The frame itself is not modified.
func (s *segment) setLeds(frame []effect.Color) {
	if !s.visible {
		return
	}
	copy(s.leds, frame[s.firstLed:s.lastLed+1])
	if s.reverse {
		for i, j := 0, len(s.leds)-1; i < j; i, j = i+1, j-1 {
			s.leds[i], s.leds[j] = s.leds[j], s.leds[i]
		}
	}
}

// getLeds returns the LEDs for the segment if visible, otherwise nil.
func (s *segment) getLeds() []effect.Color {
	if s.visible {
		return s.leds
	}
	return nil
}

// clamp ensures the LED index is within bounds.
func clamp(led int, ledsTotal int) int {
	if led < 0 {
		slog.Warn("led index is smaller than 0 - using 0", "index", led)
		return 0
	} else if led <= ledsTotal-1 {
		return led
	} else {
		slog.Warn("led index is bigger than max index - using max", "index", led, "max", ledsTotal-1)
		return ledsTotal - 1
	}
}
