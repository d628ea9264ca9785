package control

import (
	"math/rand/v2"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

// Registry holds the effect instances for the lifetime of a run: one per
// effect.Kind plus the SimpleColor used for the override color.
type Registry struct {
	effects  [effect.KindCount]effect.Effect
	override *effect.SimpleColor
}

// NewRegistry builds all effects for a width x height display. Every
// effect draws from its own random source derived from seed.
func NewRegistry(cfg c.EffectsConfig, width, height int, seed uint64) *Registry {
	rngFor := func(k effect.Kind) *rand.Rand {
		return rand.New(rand.NewPCG(seed, uint64(k)+1))
	}
	override := effect.NewSimpleColor(c.SimpleColorConfig{LedRGB: cfg.SimpleColor.LedRGB, FillBuffer: true}, width, height)

	r := &Registry{override: override}
	r.effects[effect.KindSimpleColor] = effect.NewSimpleColor(cfg.SimpleColor, width, height)
	r.effects[effect.KindNightSky] = effect.NewNightSky(cfg.NightSky, width, height, rngFor(effect.KindNightSky))
	r.effects[effect.KindRandomPixels] = effect.NewRandomPixels(cfg.RandomPixels, width, height, rngFor(effect.KindRandomPixels))
	r.effects[effect.KindFadingPixels] = effect.NewFadingPixels(cfg.FadingPixels, width, height, rngFor(effect.KindFadingPixels))
	return r
}

// Len returns the number of effects in the cycle.
func (r *Registry) Len() int {
	return len(r.effects)
}

// Resolve maps a selection index to an effect. Indices outside the
// known set resolve to the random pixel effect.
func (r *Registry) Resolve(index int) (effect.Kind, effect.Effect) {
	kind := effect.Kind(index)
	if index < 0 || index >= len(r.effects) {
		kind = effect.KindRandomPixels
	}
	return kind, r.effects[kind]
}

// Override returns the effect showing the ResetWithColor color.
func (r *Registry) Override() *effect.SimpleColor {
	return r.override
}
