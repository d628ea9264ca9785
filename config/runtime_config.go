package config

// RuntimeConfig defines the subset of the configuration that can be
// safely modified at runtime through the web API. It excludes
// hardware-specific and other sensitive settings.
type RuntimeConfig struct {
	StartEffect int           `yaml:"StartEffect" json:"StartEffect"`
	Effects     EffectsConfig `yaml:"Effects" json:"Effects"`
}

// Runtime extracts the runtime-safe part of the configuration.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		StartEffect: c.Scheduler.StartEffect,
		Effects:     c.Effects,
	}
}

// MergeRuntime overwrites the runtime-safe part of the configuration.
func (c *Config) MergeRuntime(rc RuntimeConfig) {
	c.Scheduler.StartEffect = rc.StartEffect
	c.Effects = rc.Effects
}
