package control

import (
	"sync/atomic"

	"lautenbacher.net/goeffects/effect"
	u "lautenbacher.net/goeffects/util"
)

// Selection collects the effect selection signals sent by command
// surfaces. Any goroutine may send; only the scheduler takes them, once
// per tick. A signal sent before take is seen by that take and by no
// later one.
type Selection struct {
	advance   atomic.Int64
	clear     atomic.Bool
	index     *u.AtomicEvent[int]
	color     *u.AtomicEvent[effect.Color]
	coalesced atomic.Uint64
}

// pending is the set of signals taken for one tick
type pending struct {
	clear    bool
	advance  int
	index    int
	hasIndex bool
	color    effect.Color
	hasColor bool
}

func NewSelection() *Selection {
	return &Selection{
		index: u.NewAtomicEvent[int](),
		color: u.NewAtomicEvent[effect.Color](),
	}
}

// RequestAdvance switches to the next effect. Requests are counted, so
// n requests before a tick advance by n.
func (s *Selection) RequestAdvance() {
	s.advance.Add(1)
}

// RequestClear switches the output off. Repeated requests before the
// next tick have the same effect as one.
func (s *Selection) RequestClear() {
	if s.clear.Swap(true) {
		s.coalesced.Add(1)
	}
}

// RequestSelect switches to the effect with the given index. Unknown
// indices fall back to the random pixel effect.
func (s *Selection) RequestSelect(index int) {
	if s.index.Send(index) {
		s.coalesced.Add(1)
	}
}

// ResetWithColor shows the given color on the whole strip until the
// next selection signal.
func (s *Selection) ResetWithColor(col effect.Color) {
	if s.color.Send(col) {
		s.coalesced.Add(1)
	}
}

// Coalesced returns how many signals were replaced or merged by a later
// one before a tick consumed them.
func (s *Selection) Coalesced() uint64 {
	return s.coalesced.Load()
}

func (s *Selection) take() pending {
	var p pending
	p.clear = s.clear.Swap(false)
	p.advance = int(s.advance.Swap(0))
	p.index, p.hasIndex = s.index.Consume()
	p.color, p.hasColor = s.color.Consume()
	return p
}
