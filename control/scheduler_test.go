package control

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
)

const (
	testWidth  = 16
	testHeight = 1
	testSeed   = 42
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (f *fakeClock) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	f.mu.Unlock()
}

// recordingOutput keeps the last committed frame.
type recordingOutput struct {
	mu      sync.Mutex
	back    []effect.Color
	frame   []effect.Color
	commits int
	dropped uint64
}

func newRecordingOutput(n int) *recordingOutput {
	return &recordingOutput{back: make([]effect.Color, n)}
}

func (o *recordingOutput) SetPixel(index int, col effect.Color) {
	o.back[index] = col
}

func (o *recordingOutput) CommitFrame() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frame = append([]effect.Color(nil), o.back...)
	o.commits++
}

func (o *recordingOutput) Frame() []effect.Color {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frame
}

func (o *recordingOutput) DroppedFrames() uint64 {
	return o.dropped
}

func effectsConfig() c.EffectsConfig {
	return c.EffectsConfig{
		SimpleColor: c.SimpleColorConfig{LedRGB: []float64{85, 185, 255}, FillBuffer: true},
		NightSky: c.NightSkyConfig{
			LedRGB:               []float64{255, 255, 255},
			RandomColor:          true,
			RandomizeProbability: 5,
			FadePeriod:           5 * time.Second,
			RandomizeFades:       true,
		},
		RandomPixels: c.RandomPixelsConfig{
			SpawnInterval: 300 * time.Millisecond,
			LedRGB:        []float64{0, 0, 0},
			RandomRed:     true,
			RandomGreen:   true,
			RandomBlue:    true,
		},
		FadingPixels: c.FadingPixelsConfig{
			SpawnInterval:    300 * time.Millisecond,
			FadePeriod:       2 * time.Second,
			LedRGB:           []float64{0, 0, 0},
			RandomColor:      true,
			Number:           1,
			RandomizeOnReset: true,
		},
	}
}

type fixture struct {
	clock     *fakeClock
	output    *recordingOutput
	registry  *Registry
	selection *Selection
	scheduler *Scheduler
}

func newFixture(startEffect int) *fixture {
	f := &fixture{
		clock:     &fakeClock{now: time.Second},
		output:    newRecordingOutput(testWidth * testHeight),
		registry:  NewRegistry(effectsConfig(), testWidth, testHeight, testSeed),
		selection: NewSelection(),
	}
	cfg := c.SchedulerConfig{TickPeriod: 10 * time.Millisecond, StartEffect: startEffect, StatsWindow: 10}
	f.scheduler = NewScheduler(cfg, f.registry, f.selection, f.clock, f.output, testWidth, testHeight)
	return f
}

func (f *fixture) tick() []effect.Color {
	f.scheduler.Tick()
	f.clock.Advance(10 * time.Millisecond)
	return f.output.Frame()
}

func blank() []effect.Color {
	return make([]effect.Color, testWidth*testHeight)
}

func TestScheduler_IdleRendersBlank(t *testing.T) {
	f := newFixture(-1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, blank(), f.tick())
	}
	assert.Equal(t, 5, f.output.commits)
	assert.Nil(t, f.scheduler.active)
	assert.Equal(t, "Idle", f.scheduler.Snapshot().State)
}

func TestScheduler_StartEffect(t *testing.T) {
	f := newFixture(0)
	frame := f.tick()

	want := effect.Color{R: 85, G: 185, B: 255}
	for _, col := range frame {
		assert.Equal(t, want, col)
	}
	snap := f.scheduler.Snapshot()
	assert.Equal(t, "Running", snap.State)
	assert.Equal(t, "SimpleColor", snap.Active)
}

func TestScheduler_AdvanceFromIdleActivatesNightSky(t *testing.T) {
	f := newFixture(-1)
	f.tick()
	f.tick()

	f.selection.RequestAdvance()
	now := f.clock.Now()
	frame := f.tick()

	kind, _ := f.registry.Resolve(f.scheduler.index)
	assert.Equal(t, effect.KindNightSky, kind)

	// A fresh NightSky on the same random source, reset at the tick time
	// and rendered at elapsed time 0, must produce the same frame.
	fresh := effect.NewNightSky(effectsConfig().NightSky, testWidth, testHeight,
		rand.New(rand.NewPCG(testSeed, uint64(effect.KindNightSky)+1)))
	fresh.Reset(0, 0, now)
	buf := effect.NewDisplayBuffer(testWidth, testHeight)
	fresh.Update(0, 0, now, buf)
	assert.Equal(t, buf.Snapshot(), frame)
}

func TestScheduler_DoubleClearEqualsSingleClear(t *testing.T) {
	single := newFixture(0)
	double := newFixture(0)
	single.tick()
	double.tick()

	single.selection.RequestClear()
	double.selection.RequestClear()
	double.selection.RequestClear()

	assert.Equal(t, single.tick(), double.tick())
	assert.Equal(t, blank(), double.output.Frame())
	assert.Equal(t, uint64(1), double.scheduler.Snapshot().Coalesced)

	// no clear left over for the next tick
	double.selection.RequestAdvance()
	double.tick()
	assert.NotNil(t, double.scheduler.active)
}

func TestScheduler_FourAdvancesReturnToIndex(t *testing.T) {
	f := newFixture(2)
	f.tick()
	start := f.scheduler.running

	for i := 0; i < 4; i++ {
		f.selection.RequestAdvance()
		f.tick()
		assert.Equal(t, (start+i+1)%4, f.scheduler.running)
	}
	assert.Equal(t, start, f.scheduler.running)
}

func TestScheduler_CountedAdvances(t *testing.T) {
	f := newFixture(0)
	f.tick()

	f.selection.RequestAdvance()
	f.selection.RequestAdvance()
	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, 3, f.scheduler.running)

	switches := f.scheduler.Snapshot().Switches
	for i := 0; i < 4; i++ {
		f.selection.RequestAdvance()
	}
	f.tick()
	assert.Equal(t, 3, f.scheduler.running)
	assert.Equal(t, switches, f.scheduler.Snapshot().Switches, "a full cycle leaves the running effect alone")
}

func TestScheduler_OutOfRangeRendersRandomPixels(t *testing.T) {
	f := newFixture(-1)
	f.selection.RequestSelect(99)
	f.tick()

	_, eff := f.registry.Resolve(99)
	_, random := f.registry.Resolve(int(effect.KindRandomPixels))
	assert.Same(t, random, eff)
	assert.Same(t, random, f.scheduler.active)
	assert.Equal(t, "RandomPixels", f.scheduler.Snapshot().Active)

	for i := 0; i < 100; i++ {
		f.tick()
	}
	assert.NotEqual(t, blank(), f.output.Frame())

	// advancing from an out of range index folds it back into the cycle
	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, 0, f.scheduler.running)
}

func TestScheduler_NegativeIndexNormalised(t *testing.T) {
	assert.Equal(t, 3, advanceIndex(-2, 1, 4))
	assert.Equal(t, 0, advanceIndex(-5, 1, 4))
	assert.Equal(t, 1, advanceIndex(99, 2, 4))
	assert.Equal(t, 2, advanceIndex(2, 4, 4))
}

func TestScheduler_FadingPixelsRerolledOnEverySelection(t *testing.T) {
	f := newFixture(-1)
	_, eff := f.registry.Resolve(int(effect.KindFadingPixels))
	fading := eff.(*effect.FadingPixels)

	numbers := map[int]int{}
	modes := map[bool]int{}
	for i := 0; i < 60; i++ {
		f.selection.RequestSelect(int(effect.KindFadingPixels))
		f.tick()
		require.Same(t, eff, f.scheduler.active)
		numbers[fading.Number()]++
		modes[fading.RandomColorMode()]++
	}
	assert.Len(t, numbers, 3)
	assert.Len(t, modes, 2)
}

func TestScheduler_ResetWithColor(t *testing.T) {
	f := newFixture(1)
	f.tick()

	red := effect.Color{R: 255}
	f.selection.ResetWithColor(red)
	frame := f.tick()
	for _, col := range frame {
		assert.Equal(t, red, col)
	}
	assert.Equal(t, "Override", f.scheduler.Snapshot().State)

	// the override stays until the next selection signal
	for _, col := range f.tick() {
		assert.Equal(t, red, col)
	}

	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, "Running", f.scheduler.Snapshot().State)
	assert.Equal(t, 2, f.scheduler.running, "advance continues from the index before the override")
}

func TestScheduler_ColorWinsOverAdvanceInSameTick(t *testing.T) {
	f := newFixture(0)
	f.tick()

	blue := effect.Color{B: 200}
	f.selection.RequestAdvance()
	f.selection.ResetWithColor(effect.Color{G: 1})
	f.selection.ResetWithColor(blue)
	frame := f.tick()

	assert.Equal(t, blue, frame[0])
	assert.Equal(t, 1, f.scheduler.index)
	assert.Equal(t, uint64(1), f.selection.Coalesced())
}

func TestScheduler_ClearThenAdvanceInSameTick(t *testing.T) {
	f := newFixture(0)
	f.tick()

	f.selection.RequestClear()
	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, "Running", f.scheduler.Snapshot().State)
	assert.Equal(t, 1, f.scheduler.running)
}

func TestScheduler_ClearKeepsIndex(t *testing.T) {
	f := newFixture(2)
	f.tick()
	f.selection.RequestClear()
	f.tick()
	assert.Equal(t, blank(), f.output.Frame())

	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, 3, f.scheduler.running)
}

func TestScheduler_ConcurrentAdvancesNotLost(t *testing.T) {
	f := newFixture(0)
	f.tick()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				f.selection.RequestAdvance()
			}
		}()
	}
	wg.Wait()
	// 40 advances from index 0 land on index 0 again
	f.tick()
	assert.Equal(t, 0, f.scheduler.index)
	assert.Equal(t, 0, f.selection.take().advance, "nothing applied twice")
}

func TestScheduler_Stats(t *testing.T) {
	f := newFixture(0)
	f.output.dropped = 7
	for i := 0; i < 3; i++ {
		f.tick()
	}
	snap := f.scheduler.Snapshot()
	assert.Equal(t, uint64(3), snap.Ticks)
	assert.Equal(t, uint64(1), snap.Switches)
	assert.Equal(t, uint64(0), snap.Overruns)
	assert.Equal(t, uint64(7), snap.DroppedFrames)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, uint64(3), snap.TicksSinceSwitch, "the switching tick counts")

	f.selection.RequestAdvance()
	f.tick()
	assert.Equal(t, uint64(1), f.scheduler.Snapshot().TicksSinceSwitch)
	f.tick()
	f.tick()
	snap = f.scheduler.Snapshot()
	assert.Equal(t, uint64(3), snap.TicksSinceSwitch)
	assert.Equal(t, uint64(2), snap.Switches)
}

func TestScheduler_ClearWhileIdleIsNoSwitch(t *testing.T) {
	f := newFixture(-1)
	f.tick()
	for i := 0; i < 2; i++ {
		f.selection.RequestClear()
		f.tick()
	}
	snap := f.scheduler.Snapshot()
	assert.Equal(t, uint64(0), snap.Switches)
	assert.Equal(t, uint64(3), snap.TicksSinceSwitch)
	assert.Equal(t, "Idle", snap.State)
}

// slowOutput makes every frame take longer than the tick period.
type slowOutput struct {
	*recordingOutput
	clock *fakeClock
	delay time.Duration
}

func (o *slowOutput) CommitFrame() {
	o.recordingOutput.CommitFrame()
	o.clock.Advance(o.delay)
}

func TestScheduler_CountsOverruns(t *testing.T) {
	f := newFixture(0)
	output := &slowOutput{recordingOutput: f.output, clock: f.clock, delay: 50 * time.Millisecond}
	cfg := c.SchedulerConfig{TickPeriod: 10 * time.Millisecond, StartEffect: 0, StatsWindow: 10}
	s := NewScheduler(cfg, f.registry, f.selection, f.clock, output, testWidth, testHeight)

	s.Tick()
	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Ticks)
	assert.Equal(t, uint64(1), snap.Overruns)
	assert.Equal(t, 50*time.Millisecond, snap.MaxTick)

	// a tick of exactly one period is no overrun
	output.delay = 10 * time.Millisecond
	s.Tick()
	assert.Equal(t, uint64(1), s.Snapshot().Overruns)
}

func TestScheduler_StartStop(t *testing.T) {
	output := newRecordingOutput(testWidth)
	cfg := c.SchedulerConfig{TickPeriod: time.Millisecond, StartEffect: 0, StatsLogInterval: 5 * time.Millisecond}
	s := NewScheduler(cfg, NewRegistry(effectsConfig(), testWidth, 1, 1), NewSelection(), NewClock(), output, testWidth, 1)

	s.Start()
	assert.Eventually(t, func() bool { return s.Snapshot().Ticks >= 5 }, time.Second, time.Millisecond)
	s.Stop()

	ticks := s.Snapshot().Ticks
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, ticks, s.Snapshot().Ticks, "no ticks after Stop")
	assert.Equal(t, "SimpleColor", s.Snapshot().Active)
}
