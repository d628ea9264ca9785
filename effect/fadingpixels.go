package effect

import (
	"math/rand/v2"
	"time"

	c "lautenbacher.net/goeffects/config"
)

// FadingPixels spawns number pixels every spawnInterval. Each one fades
// in and out again within fadePeriod.
//
// With randomizeOnReset the effect re-rolls number (1..3), its base
// color and whether spawned pixels get a random tint on every Reset, so
// each selection of the effect looks different.
type FadingPixels struct {
	region
	spawnInterval    time.Duration
	fadePeriod       time.Duration
	randomizeOnReset bool
	rng              *rand.Rand

	color       Color
	randomColor bool
	number      int

	lastSpawn time.Duration
	fades     []FadeState
}

func NewFadingPixels(cfg c.FadingPixelsConfig, width, height int, rng *rand.Rand) *FadingPixels {
	r := region{width: width, height: height}
	return &FadingPixels{
		region:           r,
		spawnInterval:    cfg.SpawnInterval,
		fadePeriod:       cfg.FadePeriod,
		randomizeOnReset: cfg.RandomizeOnReset,
		rng:              rng,
		color:            ColorFromRGB(cfg.LedRGB),
		randomColor:      cfg.RandomColor,
		number:           max(cfg.Number, 1),
		fades:            make([]FadeState, r.size()),
	}
}

// Number returns how many pixels are spawned per interval.
func (s *FadingPixels) Number() int {
	return s.number
}

// RandomColorMode reports whether spawned pixels get a random tint.
func (s *FadingPixels) RandomColorMode() bool {
	return s.randomColor
}

func (s *FadingPixels) Reset(offsetX, offsetY int, now time.Duration) {
	if s.randomizeOnReset {
		s.number = 1 + s.rng.IntN(3)
		s.color = RandomColor(s.rng)
		s.randomColor = s.rng.IntN(2) > 0
	}
	s.lastSpawn = now
	clear(s.fades)
}

func (s *FadingPixels) Update(offsetX, offsetY int, now time.Duration, buf *DisplayBuffer) {
	if now-s.lastSpawn >= s.spawnInterval && len(s.fades) > 0 {
		for n := 0; n < s.number; n++ {
			s.fades[s.rng.IntN(len(s.fades))] = FadeState{
				Start:  now,
				Color:  s.spawnColor(),
				Active: true,
			}
		}
		s.lastSpawn = now
	}

	for i := range s.fades {
		fade := &s.fades[i]
		if !fade.Active {
			continue
		}
		elapsed := now - fade.Start
		if elapsed >= s.fadePeriod {
			fade.Active = false
			continue
		}
		x, y := s.xy(i)
		buf.Set(x+offsetX, y+offsetY, fade.Color.Scale(triangle(elapsed, s.fadePeriod)))
	}
}

func (s *FadingPixels) spawnColor() Color {
	if s.randomColor {
		return RandomTint(s.rng, 1, s.color)
	}
	return s.color
}
