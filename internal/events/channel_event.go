package events

// ChannelEvent fans values out to registered channels. Sends never block:
// a listener whose buffer is full misses that value.
type ChannelEvent[T any] struct {
	set listenerSet[chan<- T, T]
}

// NewChannelEvent creates a ChannelEvent. With replayLast set, a newly registered
// channel receives the most recent value (if there is one and the buffer has room).
func NewChannelEvent[T any](replayLast bool) *ChannelEvent[T] {
	e := &ChannelEvent[T]{}
	e.set.init(replayLast)
	return e
}

// Listen registers ch and returns its deregistration function.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}
	id, replay, ok := e.set.add(ch)
	if ok {
		trySend(ch, replay)
	}
	return func() { e.set.remove(id) }
}

// Notify offers value to every registered channel.
func (e *ChannelEvent[T]) Notify(value T) {
	for _, ch := range e.set.record(value) {
		trySend(ch, value)
	}
}

// Last returns the most recent value when replay is enabled and Notify has run.
func (e *ChannelEvent[T]) Last() (T, bool) {
	return e.set.lastValue()
}

// ListenerCount returns the number of registered channels.
func (e *ChannelEvent[T]) ListenerCount() int {
	return e.set.count()
}

func trySend[T any](ch chan<- T, value T) {
	select {
	case ch <- value:
	default:
	}
}
