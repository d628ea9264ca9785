package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	c "lautenbacher.net/goeffects/config"
	u "lautenbacher.net/goeffects/util"
)

// button turns falling edges of a push button into commands.
type button struct {
	command  string
	edge     func() bool
	debounce time.Duration
	last     time.Time
}

// pressed reports a press when an edge was seen and the previous
// accepted press is at least debounce ago.
func (b *button) pressed(now time.Time) bool {
	if !b.edge() {
		return false
	}
	if !b.last.IsZero() && now.Sub(b.last) < b.debounce {
		return false
	}
	b.last = now
	return true
}

// buttonDriver polls the next/clear push buttons wired between a GPIO
// and ground.
type buttonDriver struct {
	config   c.ButtonsConfig
	pins     []rpio.Pin
	buttons  []*button
	send     func(*u.Trigger)
	stopChan chan bool
	wg       sync.WaitGroup
}

func newButtonDriver(cfg c.ButtonsConfig, send func(*u.Trigger)) *buttonDriver {
	return &buttonDriver{
		config:   cfg,
		send:     send,
		stopChan: make(chan bool),
	}
}

func (d *buttonDriver) Start() error {
	slog.Info("Initialise GPIO buttons...", "next", d.config.NextGPIO, "clear", d.config.ClearGPIO)
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open gpio for buttons: %w", err)
	}
	for command, gpio := range map[string]int{u.CommandNext: d.config.NextGPIO, u.CommandClear: d.config.ClearGPIO} {
		pin := rpio.Pin(gpio)
		pin.Input()
		pin.PullUp()
		pin.Detect(rpio.FallEdge)
		d.pins = append(d.pins, pin)
		d.buttons = append(d.buttons, &button{
			command:  command,
			edge:     pin.EdgeDetected,
			debounce: d.config.Debounce,
		})
	}

	d.wg.Add(1)
	go d.poll()
	return nil
}

func (d *buttonDriver) Stop() {
	close(d.stopChan)
	d.wg.Wait()

	for _, pin := range d.pins {
		pin.Detect(rpio.NoEdge)
	}
	d.pins = nil
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing gpio for buttons", "error", err)
	}
}

func (d *buttonDriver) poll() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.config.PollDelay)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			slog.Info("Ending ButtonDriver go-routine")
			return
		case now := <-ticker.C:
			d.check(now)
		}
	}
}

func (d *buttonDriver) check(now time.Time) {
	for _, b := range d.buttons {
		if b.pressed(now) {
			slog.Debug("Button pressed", "command", b.command)
			d.send(u.NewTrigger(b.command, 0, now))
		}
	}
}
