package control

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Snapshot is a point in time copy of the scheduler counters. It is
// served as JSON by the stats endpoint.
type Snapshot struct {
	State            string        `json:"state"`
	Active           string        `json:"active"`
	Index            int           `json:"index"`
	Ticks            uint64        `json:"ticks"`
	TicksSinceSwitch uint64        `json:"ticksSinceSwitch"`
	Switches         uint64        `json:"switches"`
	Overruns         uint64        `json:"overruns"`
	Coalesced        uint64        `json:"coalesced"`
	DroppedFrames    uint64        `json:"droppedFrames"`
	AvgTick          time.Duration `json:"avgTickNs"`
	MaxTick          time.Duration `json:"maxTickNs"`
}

// stats is written by the scheduler goroutine and read by observers.
type stats struct {
	mu       sync.Mutex
	state    string
	active   string
	index    int
	ticks    uint64
	since    uint64 // ticks since the last switch, the switching tick included
	switches uint64
	overruns uint64
	window   *deque.Deque[time.Duration]
	capacity int
	sum      time.Duration
}

func newStats(window int) *stats {
	st := &stats{
		state:    stateIdle.String(),
		capacity: window,
		window:   new(deque.Deque[time.Duration]),
	}
	if window > 0 {
		st.window.Grow(window)
	}
	return st
}

func (st *stats) tick(took time.Duration, overrun bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.ticks++
	st.since++
	if overrun {
		st.overruns++
	}
	if st.capacity == 0 {
		return
	}
	if st.window.Len() == st.capacity {
		st.sum -= st.window.PopFront()
	}
	st.window.PushBack(took)
	st.sum += took
}

func (st *stats) switched(state switchState, active string, index int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.switches++
	st.since = 0
	st.state = state.String()
	st.active = active
	st.index = index
}

func (st *stats) snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := Snapshot{
		State:            st.state,
		Active:           st.active,
		Index:            st.index,
		Ticks:            st.ticks,
		TicksSinceSwitch: st.since,
		Switches:         st.switches,
		Overruns:         st.overruns,
	}
	if n := st.window.Len(); n > 0 {
		snap.AvgTick = st.sum / time.Duration(n)
		for i := 0; i < n; i++ {
			snap.MaxTick = max(snap.MaxTick, st.window.At(i))
		}
	}
	return snap
}
