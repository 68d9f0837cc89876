package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	var zero T
	return zero
}

func assertEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Errorf("unexpected value received: %v", v)
	default:
	}
}

func TestNewChannelEvent(t *testing.T) {
	event := NewChannelEvent[string](false)
	require.NotNil(t, event)
	assert.Equal(t, 0, event.ListenerCount())
	assert.False(t, event.set.replayLast)
}

func TestChannelEvent_ListenNotify(t *testing.T) {
	event := NewChannelEvent[string](false)

	ch := make(chan string, 10)
	unregister := event.Listen(ch)
	assert.Equal(t, 1, event.ListenerCount())

	event.Notify("rest")
	event.Notify("done")
	assert.Equal(t, "rest", receive(t, ch))
	assert.Equal(t, "done", receive(t, ch))

	unregister()
	assert.Equal(t, 0, event.ListenerCount())
	event.Notify("ignored")
	assertEmpty(t, ch)
}

func TestChannelEvent_ReplayLast(t *testing.T) {
	event := NewChannelEvent[string](true)

	first := make(chan string, 10)
	unregisterFirst := event.Listen(first)
	assertEmpty(t, first)

	event.Notify("first-event")
	assert.Equal(t, "first-event", receive(t, first))

	second := make(chan string, 10)
	unregisterSecond := event.Listen(second)
	assert.Equal(t, "first-event", receive(t, second))

	event.Notify("second-event")
	assert.Equal(t, "second-event", receive(t, first))
	assert.Equal(t, "second-event", receive(t, second))

	unregisterFirst()
	unregisterSecond()
}

func TestChannelEvent_NilChannelPanics(t *testing.T) {
	event := NewChannelEvent[string](false)
	assert.Panics(t, func() { event.Listen(nil) })
}

func TestChannelEvent_FullChannelIsSkipped(t *testing.T) {
	event := NewChannelEvent[string](false)

	ch := make(chan string, 1)
	unregister := event.Listen(ch)
	defer unregister()

	ch <- "blocking"
	event.Notify("dropped-1")
	event.Notify("dropped-2")
	assert.Equal(t, 1, len(ch))

	<-ch
	event.Notify("delivered")
	assert.Equal(t, "delivered", receive(t, ch))
}

func TestChannelEvent_ConcurrentNotify(t *testing.T) {
	event := NewChannelEvent[int](false)

	channels := make([]chan int, 10)
	for i := range channels {
		channels[i] = make(chan int, 100)
		unregister := event.Listen(channels[i])
		defer unregister()
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		go func(v int) {
			defer wg.Done()
			event.Notify(v)
		}(i)
	}
	wg.Wait()

	for _, ch := range channels {
		assert.Equal(t, 5, len(ch))
	}
}
