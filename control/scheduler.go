package control

import (
	"log/slog"
	"sync"
	"time"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

// PixelOutput receives one frame per tick: one SetPixel per LED in strip
// order followed by CommitFrame.
type PixelOutput interface {
	SetPixel(index int, col effect.Color)
	CommitFrame()
}

// droppedCounter is implemented by outputs that can lose frames.
type droppedCounter interface {
	DroppedFrames() uint64
}

type switchState int

const (
	stateIdle switchState = iota
	stateRunning
	stateOverride
)

func (st switchState) String() string {
	switch st {
	case stateRunning:
		return "Running"
	case stateOverride:
		return "Override"
	default:
		return "Idle"
	}
}

// Scheduler renders the active effect into the display buffer and
// flushes it to the output once per tick. It owns the buffer, the index
// counter and the active effect; other goroutines steer it only through
// its Selection.
type Scheduler struct {
	period           time.Duration
	statsLogInterval time.Duration
	clock            Clock
	output           PixelOutput
	registry         *Registry
	selection        *Selection
	buffer           *effect.DisplayBuffer
	stats            *stats

	state   switchState
	index   int
	running int
	active  effect.Effect

	stopChan chan bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler in state Idle. A non negative
// StartEffect is queued as a selection and becomes active on the first
// tick.
func NewScheduler(cfg c.SchedulerConfig, registry *Registry, selection *Selection,
	clock Clock, output PixelOutput, width, height int) *Scheduler {
	s := &Scheduler{
		period:           cfg.TickPeriod,
		statsLogInterval: cfg.StatsLogInterval,
		clock:            clock,
		output:           output,
		registry:         registry,
		selection:        selection,
		buffer:           effect.NewDisplayBuffer(width, height),
		stats:            newStats(cfg.StatsWindow),
		state:            stateIdle,
		running:          -1,
		stopChan:         make(chan bool),
	}
	if cfg.StartEffect >= 0 {
		selection.RequestSelect(cfg.StartEffect)
	}
	return s
}

// Start runs the render loop in its own goroutine until Stop is called.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop ends the render loop and waits for the running tick to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	var statsTick <-chan time.Time
	if s.statsLogInterval > 0 {
		statsTicker := time.NewTicker(s.statsLogInterval)
		defer statsTicker.Stop()
		statsTick = statsTicker.C
	}

	slog.Info("Starting render loop", "period", s.period)
	for {
		select {
		case <-s.stopChan:
			slog.Info("Ending render loop go-routine...")
			return
		case <-ticker.C:
			s.Tick()
		case <-statsTick:
			s.logStats()
		}
	}
}

// Tick performs one Switch, Clear, Render, Flush cycle. It must not be
// called while the loop started by Start is running.
func (s *Scheduler) Tick() {
	now := s.clock.Now()

	s.evaluate(now)

	s.buffer.Clear()
	if s.active != nil {
		s.active.Update(0, 0, now, s.buffer)
	}
	for i := 0; i < s.buffer.Len(); i++ {
		s.output.SetPixel(i, s.buffer.At(i))
	}
	s.output.CommitFrame()

	took := s.clock.Now() - now
	s.stats.tick(took, took > s.period)
}

// evaluate applies the signals taken for this tick in the order clear,
// select, advance, override color.
func (s *Scheduler) evaluate(now time.Duration) {
	p := s.selection.take()

	if p.clear && s.state != stateIdle {
		s.state = stateIdle
		s.active = nil
		s.running = -1
		s.stats.switched(s.state, "", s.index)
		slog.Debug("Effect cleared")
	}

	selected := false
	if p.hasIndex {
		s.index = p.index
		selected = true
	}
	if p.advance > 0 {
		s.index = advanceIndex(s.index, p.advance, s.registry.Len())
		selected = true
	}

	if p.hasColor {
		override := s.registry.Override()
		override.SetColor(p.color)
		override.Reset(0, 0, now)
		s.state = stateOverride
		s.active = override
		s.running = -1
		s.stats.switched(s.state, "Override", s.index)
		slog.Debug("Showing override color", "color", p.color)
		return
	}

	switch {
	case !selected:
		return
	case s.state == stateRunning && s.index == s.running && !p.hasIndex:
		return
	}
	s.activate(now)
}

func (s *Scheduler) activate(now time.Duration) {
	kind, eff := s.registry.Resolve(s.index)
	eff.Reset(0, 0, now)
	s.state = stateRunning
	s.active = eff
	s.running = s.index
	s.stats.switched(s.state, kind.String(), s.index)
	slog.Debug("Switched effect", "index", s.index, "effect", kind)
}

// advanceIndex moves index n steps forward in a cycle of count effects.
// Indices outside the cycle are folded into it first.
func advanceIndex(index, n, count int) int {
	return (((index+n)%count)+count)%count
}

// Snapshot returns the current counters. It is safe to call from any
// goroutine.
func (s *Scheduler) Snapshot() Snapshot {
	snap := s.stats.snapshot()
	snap.Coalesced = s.selection.Coalesced()
	if dc, ok := s.output.(droppedCounter); ok {
		snap.DroppedFrames = dc.DroppedFrames()
	}
	return snap
}

func (s *Scheduler) logStats() {
	snap := s.Snapshot()
	slog.Info("Scheduler stats",
		"state", snap.State,
		"active", snap.Active,
		"ticks", snap.Ticks,
		"ticksSinceSwitch", snap.TicksSinceSwitch,
		"switches", snap.Switches,
		"overruns", snap.Overruns,
		"coalesced", snap.Coalesced,
		"dropped", snap.DroppedFrames,
		"avgTick", snap.AvgTick,
		"maxTick", snap.MaxTick)
}
