package events

// CallbackEvent delivers values synchronously to registered callbacks.
// Callbacks run on the notifying goroutine, after the internal lock is released,
// so a callback may Listen, unregister or Notify again without deadlocking.
type CallbackEvent[T any] struct {
	set listenerSet[func(T), T]
}

// NewCallbackEvent creates a CallbackEvent. With replayLast set, a new listener is
// called immediately with the most recent value once Notify has happened at least once.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	e := &CallbackEvent[T]{}
	e.set.init(replayLast)
	return e
}

// Listen registers callback and returns its deregistration function.
// The deregistration function is safe to call more than once.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}
	id, replay, ok := e.set.add(callback)
	if ok {
		callback(replay)
	}
	return func() { e.set.remove(id) }
}

// Notify calls every registered callback with value.
func (e *CallbackEvent[T]) Notify(value T) {
	for _, callback := range e.set.record(value) {
		callback(value)
	}
}

// Last returns the most recent value when replay is enabled and Notify has run.
func (e *CallbackEvent[T]) Last() (T, bool) {
	return e.set.lastValue()
}

// ListenerCount returns the number of registered callbacks.
func (e *CallbackEvent[T]) ListenerCount() int {
	return e.set.count()
}
