package effect

import (
	"math/rand/v2"
	"time"

	c "lautenbacher.net/goeffects/config"
)

// Saturation of star tints, low enough to stay close to white
const starSaturation = 0.25

// NightSky lets every pixel twinkle like a star. Each star fades in and
// out with fadePeriod; phases are spread randomly so the sky never
// pulses as a whole. After each period a star picks a new tint with
// randomizeProbability percent.
type NightSky struct {
	region
	color                Color
	randomColor          bool
	randomizeProbability int
	fadePeriod           time.Duration
	randomizeFades       bool
	rng                  *rand.Rand

	stars []FadeState
}

func NewNightSky(cfg c.NightSkyConfig, width, height int, rng *rand.Rand) *NightSky {
	r := region{width: width, height: height}
	return &NightSky{
		region:               r,
		color:                ColorFromRGB(cfg.LedRGB),
		randomColor:          cfg.RandomColor,
		randomizeProbability: cfg.RandomizeProbability,
		fadePeriod:           cfg.FadePeriod,
		randomizeFades:       cfg.RandomizeFades,
		rng:                  rng,
		stars:                make([]FadeState, r.size()),
	}
}

func (s *NightSky) Reset(offsetX, offsetY int, now time.Duration) {
	for i := range s.stars {
		start := now
		if s.randomizeFades && s.fadePeriod > 0 {
			start -= time.Duration(s.rng.Int64N(int64(s.fadePeriod)))
		}
		s.stars[i] = FadeState{
			Start:  start,
			Color:  s.tint(),
			Active: true,
		}
	}
}

func (s *NightSky) Update(offsetX, offsetY int, now time.Duration, buf *DisplayBuffer) {
	for i := range s.stars {
		star := &s.stars[i]
		elapsed := now - star.Start
		if s.fadePeriod > 0 && elapsed >= s.fadePeriod {
			// keep the phase aligned to the period even after a long gap
			cycles := elapsed / s.fadePeriod
			star.Start += cycles * s.fadePeriod
			elapsed -= cycles * s.fadePeriod
			if s.rng.IntN(100) < s.randomizeProbability {
				star.Color = s.tint()
			}
		}
		x, y := s.xy(i)
		buf.Set(x+offsetX, y+offsetY, star.Color.Scale(triangle(elapsed, s.fadePeriod)))
	}
}

func (s *NightSky) tint() Color {
	if s.randomColor {
		return RandomTint(s.rng, starSaturation, s.color)
	}
	return s.color
}
