package effect

import (
	"math/rand/v2"
	"time"

	c "lautenbacher.net/goeffects/config"
)

// RandomPixels lights one random pixel with a new color every
// spawnInterval. Lit pixels keep their color until they are picked
// again or the effect is reset.
type RandomPixels struct {
	region
	spawnInterval time.Duration
	color         Color
	randomRed     bool
	randomGreen   bool
	randomBlue    bool
	rng           *rand.Rand

	lastSpawn time.Duration
	pixels    []Color
}

func NewRandomPixels(cfg c.RandomPixelsConfig, width, height int, rng *rand.Rand) *RandomPixels {
	r := region{width: width, height: height}
	return &RandomPixels{
		region:        r,
		spawnInterval: cfg.SpawnInterval,
		color:         ColorFromRGB(cfg.LedRGB),
		randomRed:     cfg.RandomRed,
		randomGreen:   cfg.RandomGreen,
		randomBlue:    cfg.RandomBlue,
		rng:           rng,
		pixels:        make([]Color, r.size()),
	}
}

func (s *RandomPixels) Reset(offsetX, offsetY int, now time.Duration) {
	s.lastSpawn = now
	clear(s.pixels)
}

func (s *RandomPixels) Update(offsetX, offsetY int, now time.Duration, buf *DisplayBuffer) {
	// A late update spawns once, not once per missed interval
	if now-s.lastSpawn >= s.spawnInterval && len(s.pixels) > 0 {
		s.pixels[s.rng.IntN(len(s.pixels))] = s.spawnColor()
		s.lastSpawn = now
	}
	for i, col := range s.pixels {
		x, y := s.xy(i)
		buf.Set(x+offsetX, y+offsetY, col)
	}
}

func (s *RandomPixels) spawnColor() Color {
	col := s.color
	rnd := RandomColor(s.rng)
	if s.randomRed {
		col.R = rnd.R
	}
	if s.randomGreen {
		col.G = rnd.G
	}
	if s.randomBlue {
		col.B = rnd.B
	}
	return col
}
