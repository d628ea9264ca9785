package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[any]()
	assert.NotNil(t, ae, "NewAtomicEvent should not return nil")
	assert.NotNil(t, ae.notify, "notify channel should be initialized")
	assert.False(t, ae.HasPending())
}

func TestSendAndConsume(t *testing.T) {
	ae := NewAtomicEvent[int]()

	assert.False(t, ae.Send(123), "first send replaces nothing")
	assert.True(t, ae.HasPending())

	v, ok := ae.Consume()
	assert.True(t, ok)
	assert.Equal(t, 123, v)
	assert.False(t, ae.HasPending())

	v, ok = ae.Consume()
	assert.False(t, ok, "a value must be consumed only once")
	assert.Equal(t, 0, v)
}

func TestSendReplacesUnconsumed(t *testing.T) {
	ae := NewAtomicEvent[string]()
	assert.False(t, ae.Send("event1"))
	assert.True(t, ae.Send("event2"))
	assert.True(t, ae.Send("event3"))

	v, ok := ae.Consume()
	assert.True(t, ok)
	assert.Equal(t, "event3", v, "only the latest value is kept")

	assert.False(t, ae.Send("event4"), "nothing pending after consume")
}

func TestNotificationChannel(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("event1")
	ae.Send("event2")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	select {
	case <-ae.Channel():
		t.Fatal("multiple sends must produce only one notification")
	default:
	}

	v, ok := ae.Consume()
	assert.True(t, ok)
	assert.Equal(t, "event2", v)
}

func TestConsumeDrainsNotification(t *testing.T) {
	ae := NewAtomicEvent[int]()
	ae.Send(1)
	ae.Consume()

	select {
	case <-ae.Channel():
		t.Fatal("notification must be drained by Consume")
	default:
	}
}

func TestConcurrency(t *testing.T) {
	ae := NewAtomicEvent[int]()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			ae.Send(i)
		}
		close(done)
	}()

	lastRead := -1
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		read := func() {
			if val, ok := ae.Consume(); ok {
				if val < lastRead {
					t.Errorf("read a stale value: got %d, last was %d", val, lastRead)
				}
				lastRead = val
			}
		}
		for {
			select {
			case <-ae.Channel():
				read()
			case <-done:
				read()
				return
			}
		}
	}()

	readerWg.Wait()
	assert.Equal(t, 999, lastRead, "the final value must be observed")
}
