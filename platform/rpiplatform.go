package platform

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

type RaspberryPiPlatform struct {
	*AbstractPlatform
	ledDriver       ledDriver
	spiPort         spi.PortCloser
	spiConn         spi.Conn
	spiMutex        sync.Mutex
	spimultiplexcfg map[string]gpiocfg
	buttons         *buttonDriver
}

type gpiocfg struct {
	low  []gpio.PinIO
	high []gpio.PinIO
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.rpiDisplayFunc)
	return inst
}

func (s *RaspberryPiPlatform) Start() error {
	slog.Info("Initialise GPIO and Spi...")
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to init periph: %w", err)
	}

	var err error
	s.spiPort, err = spireg.Open("/dev/spidev0.0")
	if err != nil {
		return fmt.Errorf("failed to open spi: %w", err)
	}

	s.spiConn, err = s.spiPort.Connect(physic.Frequency(s.config.Hardware.SPIFrequency)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return fmt.Errorf("failed to connect to spi device: %w", err)
	}

	s.spimultiplexcfg = make(map[string]gpiocfg, len(s.config.Hardware.SpiMultiplexGPIO))
	for key, cfg := range s.config.Hardware.SpiMultiplexGPIO {
		low, err := outputPins(cfg.Low, gpio.Low)
		if err != nil {
			return err
		}
		high, err := outputPins(cfg.High, gpio.High)
		if err != nil {
			return err
		}
		s.spimultiplexcfg[key] = gpiocfg{
			low:  low,
			high: high,
		}
	}

	switch strings.ToUpper(s.config.Hardware.LEDType) {
	case "APA102":
		s.ledDriver = newApa102Driver(s.config.Hardware.Display)
	case "WS2801":
		s.ledDriver = newWs2801Driver(s.config.Hardware.Display)
	default:
		return fmt.Errorf("unknown LED type: %s", s.config.Hardware.LEDType)
	}

	if s.config.Hardware.Buttons.Enabled {
		s.buttons = newButtonDriver(s.config.Hardware.Buttons, s.sendCommand)
		if err := s.buttons.Start(); err != nil {
			return err
		}
	}

	s.displayWg.Add(1)
	go s.displayDriver()

	close(s.readyChan) // For RPi, we are ready immediately.
	return nil
}

func outputPins(pins []int, level gpio.Level) ([]gpio.PinIO, error) {
	out := make([]gpio.PinIO, 0, len(pins))
	for _, pinName := range pins {
		pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", pinName))
		if pin == nil {
			return nil, fmt.Errorf("failed to find pin %d", pinName)
		}
		if err := pin.Out(level); err != nil {
			return nil, fmt.Errorf("failed to set pin %d to output: %w", pinName, err)
		}
		out = append(out, pin)
	}
	return out, nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()

	// Signal goroutines to stop and wait for them to finish
	close(s.displayStopChan)
	s.displayWg.Wait()
	if s.buttons != nil {
		s.buttons.Stop()
		s.buttons = nil
	}

	// Now, safely close hardware
	if s.spiPort != nil {
		if err := s.spiPort.Close(); err != nil {
			slog.Error("Error closing spi port", "error", err)
		}
		s.spiPort = nil
	}

	for _, cfg := range s.spimultiplexcfg {
		for _, pin := range cfg.low {
			pin.Halt()
		}
		for _, pin := range cfg.high {
			pin.Halt()
		}
	}
	s.spimultiplexcfg = nil
}

func (s *RaspberryPiPlatform) rpiDisplayFunc(frame []effect.Color) {
	s.distributeFrame(frame)
	for _, segarray := range s.segments {
		for _, seg := range segarray {
			if seg.visible {
				if err := s.ledDriver.write(seg, s.spiExchangeMultiplex); err != nil {
					slog.Error("Error writing to LED driver", "error", err)
				}
			}
		}
	}
}

func (s *RaspberryPiPlatform) spiExchangeMultiplex(index string, data []byte) error {
	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()

	// Unknown keys select no multiplexer, the config validation rejects
	// them when multiplexing is configured at all.
	cfg := s.spimultiplexcfg[index]
	for _, pin := range cfg.low {
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to select multiplexer %s: %w", index, err)
		}
	}
	for _, pin := range cfg.high {
		if err := pin.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to select multiplexer %s: %w", index, err)
		}
	}

	read := make([]byte, len(data))
	if err := s.spiConn.Tx(data, read); err != nil {
		return fmt.Errorf("spi transaction failed: %w", err)
	}
	return nil
}

// ledDriver encodes a segment for a LED chip type and sends it.
type ledDriver interface {
	write(segment *segment, exchangeFunc func(string, []byte) error) error
}

// corrected applies the configured per channel color correction.
func corrected(col effect.Color, correction []float64) (red, green, blue byte) {
	red = byte(math.Min(float64(col.R)*correction[0], 255))
	green = byte(math.Min(float64(col.G)*correction[1], 255))
	blue = byte(math.Min(float64(col.B)*correction[2], 255))
	return red, green, blue
}

type ws2801Driver struct {
	displayConfig config.DisplayConfig
	buffer        []byte
}

func newWs2801Driver(displayConfig config.DisplayConfig) *ws2801Driver {
	// Pre-allocate buffer to the maximum possible size.
	maxSize := 3 * displayConfig.LedsTotal
	return &ws2801Driver{
		displayConfig: displayConfig,
		buffer:        make([]byte, maxSize),
	}
}

func (d *ws2801Driver) write(segment *segment, exchangeFunc func(string, []byte) error) error {
	requiredSize := 3 * len(segment.leds)
	display := d.buffer[:requiredSize]

	for idx, col := range segment.leds {
		display[3*idx], display[3*idx+1], display[3*idx+2] = corrected(col, d.displayConfig.ColorCorrection)
	}
	return exchangeFunc(segment.spiMultiplex, display)
}

type apa102Driver struct {
	displayConfig config.DisplayConfig
	buffer        []byte
}

func newApa102Driver(displayConfig config.DisplayConfig) *apa102Driver {
	// Pre-allocate buffer to the maximum possible size.
	frameEndLength := (displayConfig.LedsTotal / 16) + 1
	maxSize := 4 + (4 * displayConfig.LedsTotal) + frameEndLength
	return &apa102Driver{
		displayConfig: displayConfig,
		buffer:        make([]byte, maxSize),
	}
}

func (d *apa102Driver) write(segment *segment, exchangeFunc func(string, []byte) error) error {
	// Calculate required size for the current segment
	frameEndLength := (len(segment.leds) / 16) + 1
	requiredSize := 4 + (4 * len(segment.leds)) + frameEndLength
	display := d.buffer[:requiredSize]

	// Frame start: 4 zero bytes
	copy(display[0:4], []byte{0x00, 0x00, 0x00, 0x00})

	// Fixed general brightness
	brightness := d.displayConfig.APA102_Brightness | 0xE0

	offset := 4
	for _, col := range segment.leds {
		red, green, blue := corrected(col, d.displayConfig.ColorCorrection)

		// protocol: brightness byte, blue, green, red
		display[offset] = brightness
		display[offset+1] = blue
		display[offset+2] = green
		display[offset+3] = red
		offset += 4
	}

	// Frame end: fill the rest of the slice with 0xFF
	for i := offset; i < requiredSize; i++ {
		display[i] = 0xFF
	}

	return exchangeFunc(segment.spiMultiplex, display)
}
