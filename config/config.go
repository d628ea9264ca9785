package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

type Config struct {
	// Set from command line flags, never read from or written to the file
	RealHW bool `yaml:"-" json:"-"`

	Hardware  HardwareConfig  `yaml:"Hardware"`
	Scheduler SchedulerConfig `yaml:"Scheduler"`
	Effects   EffectsConfig   `yaml:"Effects"`
	Web       WebConfig       `yaml:"Web"`
	Logging   LoggingConfig   `yaml:"Logging"`
}

type HardwareConfig struct {
	LEDType          string                `yaml:"LEDType"`
	SPIFrequency     int                   `yaml:"SPIFrequency"`
	SpiMultiplexGPIO map[string]GPIOConfig `yaml:"SpiMultiplexGPIO"`
	Display          DisplayConfig         `yaml:"Display"`
	Buttons          ButtonsConfig         `yaml:"Buttons"`
}

type GPIOConfig struct {
	Low  []int `yaml:"Low"`
	High []int `yaml:"High"`
}

type DisplayConfig struct {
	LedsTotal         int                       `yaml:"LedsTotal"`
	Width             int                       `yaml:"Width"`
	Height            int                       `yaml:"Height"`
	ColorCorrection   []float64                 `yaml:"ColorCorrection"`
	APA102_Brightness byte                      `yaml:"APA102_Brightness"`
	LedSegments       map[string][]SegmentConfig `yaml:"LedSegments"`
	NightDimming      NightDimmingConfig        `yaml:"NightDimming"`
}

type SegmentConfig struct {
	FirstLed     int    `yaml:"FirstLed"`
	LastLed      int    `yaml:"LastLed"`
	SpiMultiplex string `yaml:"SpiMultiplex"`
	Reverse      bool   `yaml:"Reverse"`
}

// NightDimmingConfig scales the strip brightness between sunset and
// sunrise at the given location.
type NightDimmingConfig struct {
	Enabled   bool    `yaml:"Enabled"`
	Latitude  float64 `yaml:"Latitude"`
	Longitude float64 `yaml:"Longitude"`
	Factor    float64 `yaml:"Factor"`
}

type ButtonsConfig struct {
	Enabled   bool          `yaml:"Enabled"`
	NextGPIO  int           `yaml:"NextGPIO"`
	ClearGPIO int           `yaml:"ClearGPIO"`
	PollDelay time.Duration `yaml:"PollDelay"`
	Debounce  time.Duration `yaml:"Debounce"`
}

type SchedulerConfig struct {
	TickPeriod time.Duration `yaml:"TickPeriod" json:"TickPeriod"`
	// Index of the effect selected at startup, -1 starts without an effect
	StartEffect      int           `yaml:"StartEffect" json:"StartEffect"`
	Seed             uint64        `yaml:"Seed" json:"Seed"`
	StatsLogInterval time.Duration `yaml:"StatsLogInterval" json:"StatsLogInterval"`
	StatsWindow      int           `yaml:"StatsWindow" json:"StatsWindow"`
}

type EffectsConfig struct {
	SimpleColor  SimpleColorConfig  `yaml:"SimpleColor" json:"SimpleColor"`
	NightSky     NightSkyConfig     `yaml:"NightSky" json:"NightSky"`
	RandomPixels RandomPixelsConfig `yaml:"RandomPixels" json:"RandomPixels"`
	FadingPixels FadingPixelsConfig `yaml:"FadingPixels" json:"FadingPixels"`
}

type SimpleColorConfig struct {
	LedRGB     []float64 `yaml:"LedRGB" json:"LedRGB"`
	FillBuffer bool      `yaml:"FillBuffer" json:"FillBuffer"`
}

type NightSkyConfig struct {
	LedRGB      []float64 `yaml:"LedRGB" json:"LedRGB"`
	RandomColor bool      `yaml:"RandomColor" json:"RandomColor"`
	// Chance in percent that a star picks a new tint after a fade period
	RandomizeProbability int           `yaml:"RandomizeProbability" json:"RandomizeProbability"`
	FadePeriod           time.Duration `yaml:"FadePeriod" json:"FadePeriod"`
	RandomizeFades       bool          `yaml:"RandomizeFades" json:"RandomizeFades"`
}

type RandomPixelsConfig struct {
	SpawnInterval time.Duration `yaml:"SpawnInterval" json:"SpawnInterval"`
	LedRGB        []float64     `yaml:"LedRGB" json:"LedRGB"`
	RandomRed     bool          `yaml:"RandomRed" json:"RandomRed"`
	RandomGreen   bool          `yaml:"RandomGreen" json:"RandomGreen"`
	RandomBlue    bool          `yaml:"RandomBlue" json:"RandomBlue"`
}

type FadingPixelsConfig struct {
	SpawnInterval    time.Duration `yaml:"SpawnInterval" json:"SpawnInterval"`
	FadePeriod       time.Duration `yaml:"FadePeriod" json:"FadePeriod"`
	LedRGB           []float64     `yaml:"LedRGB" json:"LedRGB"`
	RandomColor      bool          `yaml:"RandomColor" json:"RandomColor"`
	Number           int           `yaml:"Number" json:"Number"`
	RandomizeOnReset bool          `yaml:"RandomizeOnReset" json:"RandomizeOnReset"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Listen  string `yaml:"Listen"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// ReadConfig reads and validates the config file cfile.
func ReadConfig(cfile string, realhw bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := &Config{}
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.RealHW = realhw
	conf.applyDefaults()

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

func (c *Config) applyDefaults() {
	d := &c.Hardware.Display
	if d.Width == 0 && d.Height == 0 {
		d.Width = d.LedsTotal
		d.Height = 1
	}
	if len(d.ColorCorrection) == 0 {
		d.ColorCorrection = []float64{1, 1, 1}
	}
	if len(d.LedSegments) == 0 && d.LedsTotal > 0 {
		d.LedSegments = map[string][]SegmentConfig{
			"default": {{FirstLed: 0, LastLed: d.LedsTotal - 1, SpiMultiplex: "default"}},
		}
	}
	if c.Scheduler.TickPeriod == 0 {
		c.Scheduler.TickPeriod = 10 * time.Millisecond
	}
	if c.Scheduler.StatsWindow == 0 {
		c.Scheduler.StatsWindow = 100
	}
	if c.Hardware.Buttons.PollDelay == 0 {
		c.Hardware.Buttons.PollDelay = 20 * time.Millisecond
	}
	if c.Web.Listen == "" {
		c.Web.Listen = ":8080"
	}
}

// Validate checks the semantic consistency of the whole configuration
// and reports all problems found at once.
func (c *Config) Validate() error {
	var errs []error
	d := c.Hardware.Display

	if d.LedsTotal <= 0 {
		errs = append(errs, errors.New("Hardware.Display.LedsTotal must be positive"))
	}
	if d.Width <= 0 || d.Height <= 0 {
		errs = append(errs, fmt.Errorf("Hardware.Display.Width (%d) and Height (%d) must be positive", d.Width, d.Height))
	}
	if d.Width*d.Height != d.LedsTotal {
		errs = append(errs, fmt.Errorf("Hardware.Display.Width (%d) * Height (%d) must equal LedsTotal (%d)", d.Width, d.Height, d.LedsTotal))
	}
	if len(d.ColorCorrection) != 3 {
		errs = append(errs, errors.New("Hardware.Display.ColorCorrection must have 3 values"))
	}
	for name, segs := range d.LedSegments {
		for _, seg := range segs {
			if seg.FirstLed < 0 || seg.LastLed >= d.LedsTotal || seg.FirstLed > seg.LastLed {
				errs = append(errs, fmt.Errorf("segment group %s: invalid led range %d-%d", name, seg.FirstLed, seg.LastLed))
			}
			// Without any multiplex pins all segments share the one SPI bus
			if c.RealHW && len(c.Hardware.SpiMultiplexGPIO) > 0 {
				if _, ok := c.Hardware.SpiMultiplexGPIO[seg.SpiMultiplex]; !ok {
					errs = append(errs, fmt.Errorf("segment group %s: unknown SpiMultiplex %q", name, seg.SpiMultiplex))
				}
			}
		}
	}
	if nd := d.NightDimming; nd.Enabled {
		if nd.Factor < 0 || nd.Factor > 1 {
			errs = append(errs, errors.New("Hardware.Display.NightDimming.Factor must be between 0 and 1"))
		}
		if nd.Latitude < -90 || nd.Latitude > 90 || nd.Longitude < -180 || nd.Longitude > 180 {
			errs = append(errs, errors.New("Hardware.Display.NightDimming has invalid coordinates"))
		}
	}
	if c.RealHW {
		switch strings.ToUpper(c.Hardware.LEDType) {
		case "APA102", "WS2801":
		default:
			errs = append(errs, fmt.Errorf("unknown Hardware.LEDType %q", c.Hardware.LEDType))
		}
		if c.Hardware.SPIFrequency <= 0 {
			errs = append(errs, errors.New("Hardware.SPIFrequency must be positive"))
		}
		if b := c.Hardware.Buttons; b.Enabled && b.NextGPIO == b.ClearGPIO {
			errs = append(errs, errors.New("Hardware.Buttons.NextGPIO and ClearGPIO must differ"))
		}
	}

	if c.Scheduler.TickPeriod <= 0 {
		errs = append(errs, errors.New("Scheduler.TickPeriod must be positive"))
	}
	if c.Scheduler.StatsWindow < 0 {
		errs = append(errs, errors.New("Scheduler.StatsWindow must not be negative"))
	}

	if err := c.Effects.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the effect parameters only. It is also used for the
// runtime config posted through the web handler.
func (e EffectsConfig) Validate() error {
	var errs []error
	checkRGB := func(name string, rgb []float64) {
		if len(rgb) != 3 {
			errs = append(errs, fmt.Errorf("Effects.%s.LedRGB must have 3 values", name))
			return
		}
		for _, v := range rgb {
			if v < 0 || v > 255 {
				errs = append(errs, fmt.Errorf("Effects.%s.LedRGB values must be between 0 and 255", name))
				return
			}
		}
	}

	checkRGB("SimpleColor", e.SimpleColor.LedRGB)
	checkRGB("NightSky", e.NightSky.LedRGB)
	checkRGB("RandomPixels", e.RandomPixels.LedRGB)
	checkRGB("FadingPixels", e.FadingPixels.LedRGB)

	if e.NightSky.FadePeriod <= 0 {
		errs = append(errs, errors.New("Effects.NightSky.FadePeriod must be positive"))
	}
	if p := e.NightSky.RandomizeProbability; p < 0 || p > 100 {
		errs = append(errs, errors.New("Effects.NightSky.RandomizeProbability must be between 0 and 100"))
	}
	if e.RandomPixels.SpawnInterval <= 0 {
		errs = append(errs, errors.New("Effects.RandomPixels.SpawnInterval must be positive"))
	}
	if e.FadingPixels.SpawnInterval <= 0 {
		errs = append(errs, errors.New("Effects.FadingPixels.SpawnInterval must be positive"))
	}
	if e.FadingPixels.FadePeriod <= 0 {
		errs = append(errs, errors.New("Effects.FadingPixels.FadePeriod must be positive"))
	}
	if e.FadingPixels.Number < 1 {
		errs = append(errs, errors.New("Effects.FadingPixels.Number must be at least 1"))
	}
	return errors.Join(errs...)
}
