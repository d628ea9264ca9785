package platform

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

// dimmer scales frames down between sunset and sunrise. It is only used
// by the display goroutine.
type dimmer struct {
	enabled   bool
	latitude  float64
	longitude float64
	factor    float64

	day  time.Time
	rise time.Time
	set  time.Time
}

func newDimmer(cfg c.NightDimmingConfig) *dimmer {
	return &dimmer{
		enabled:   cfg.Enabled,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		factor:    cfg.Factor,
	}
}

// Factor returns the brightness factor for the wall clock time now.
func (d *dimmer) Factor(now time.Time) float64 {
	if !d.enabled {
		return 1
	}
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !day.Equal(d.day) {
		d.day = day
		d.rise, d.set = sunrise.SunriseSunset(d.latitude, d.longitude, now.Year(), now.Month(), now.Day())
	}
	if now.After(d.rise) && now.Before(d.set) {
		// During the day - between sunrise and sunset
		return 1
	}
	return d.factor
}

func (d *dimmer) apply(frame []effect.Color, now time.Time) {
	f := d.Factor(now)
	if f == 1 {
		return
	}
	for i := range frame {
		frame[i] = frame[i].Scale(f)
	}
}
