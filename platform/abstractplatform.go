package platform

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	c "lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
	u "lautenbacher.net/goeffects/util"
)

// commandBuffer is the capacity of the command event channel
const commandBuffer = 16

type AbstractPlatform struct {
	config          *c.Config
	commandEvents   chan *u.Trigger
	segments        map[string][]*segment
	dimmer          *dimmer
	displayFunc     func([]effect.Color)
	back            []effect.Color
	frames          *u.AtomicEvent[[]effect.Color]
	framePool       *sync.Pool
	dropped         atomic.Uint64
	displayWg       sync.WaitGroup
	displayStopChan chan bool
	readyChan       chan bool
	shutdownMutex   sync.RWMutex
	isShuttingDown  bool
}

func newAbstractPlatform(conf *c.Config, displayFunc func([]effect.Color)) *AbstractPlatform {
	ledsTotal := conf.Hardware.Display.LedsTotal
	return &AbstractPlatform{
		config:        conf,
		commandEvents: make(chan *u.Trigger, commandBuffer),
		segments:      parseDisplaySegments(conf.Hardware.Display),
		dimmer:        newDimmer(conf.Hardware.Display.NightDimming),
		displayFunc:   displayFunc,
		back:          make([]effect.Color, ledsTotal),
		frames:        u.NewAtomicEvent[[]effect.Color](),
		framePool: &sync.Pool{
			New: func() any {
				return make([]effect.Color, ledsTotal)
			},
		},
		displayStopChan: make(chan bool),
		readyChan:       make(chan bool),
	}
}

func (s *AbstractPlatform) GetCommandEvents() <-chan *u.Trigger {
	return s.commandEvents
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) LedsTotal() int {
	return s.config.Hardware.Display.LedsTotal
}

// SetPixel ignores indices outside the strip.
func (s *AbstractPlatform) SetPixel(index int, col effect.Color) {
	if index < 0 || index >= len(s.back) {
		return
	}
	s.back[index] = col
}

func (s *AbstractPlatform) CommitFrame() {
	frame := s.framePool.Get().([]effect.Color)
	copy(frame, s.back)
	if s.frames.Send(frame) {
		s.dropped.Add(1)
	}
}

func (s *AbstractPlatform) DroppedFrames() uint64 {
	return s.dropped.Load()
}

// sendCommand forwards a command without blocking the input goroutine.
func (s *AbstractPlatform) sendCommand(trigger *u.Trigger) {
	select {
	case s.commandEvents <- trigger:
	default:
		slog.Warn("Command queue full, dropping command", "command", trigger.ID)
	}
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

func (s *AbstractPlatform) displayDriver() {
	defer s.displayWg.Done()
	for {
		select {
		case <-s.displayStopChan:
			slog.Info("Ending DisplayDriver go-routine...")
			return
		case <-s.frames.Channel():
			frame, ok := s.frames.Consume()
			if !ok {
				continue
			}
			s.dimmer.apply(frame, time.Now())
			s.shutdownMutex.RLock()
			if !s.isShuttingDown {
				s.displayFunc(frame)
			}
			s.shutdownMutex.RUnlock()
			// Return the buffer to the pool for reuse.
			s.framePool.Put(frame)
		}
	}
}

// distributeFrame copies the frame into all segments.
func (s *AbstractPlatform) distributeFrame(frame []effect.Color) {
	for _, segarray := range s.segments {
		for _, seg := range segarray {
			seg.setLeds(frame)
		}
	}
}
