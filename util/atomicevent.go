package util

import (
	"sync"
)

// AtomicEvent is a single-slot mailbox. Producers never block; a value
// that has not been consumed yet is replaced by the next Send.
type AtomicEvent[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	notify  chan struct{} // capacity 1
}

// NewAtomicEvent creates a new, empty AtomicEvent.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores event as the latest value. It reports whether an
// unconsumed value was replaced.
func (ae *AtomicEvent[T]) Send(event T) (replaced bool) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	replaced = ae.pending
	ae.value = event
	ae.pending = true

	select {
	case ae.notify <- struct{}{}:
	default:
		// notification already pending
	}
	return replaced
}

// Channel returns the notification channel for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Consume takes the pending value out of the mailbox. ok is false when
// nothing was sent since the last Consume.
func (ae *AtomicEvent[T]) Consume() (value T, ok bool) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	if !ae.pending {
		return value, false
	}
	value = ae.value
	var zero T
	ae.value = zero
	ae.pending = false

	select {
	case <-ae.notify:
	default:
	}
	return value, true
}

// HasPending reports whether a value waits to be consumed.
func (ae *AtomicEvent[T]) HasPending() bool {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.pending
}
