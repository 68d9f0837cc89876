package events

import "sync"

// listenerSet is the bookkeeping shared by CallbackEvent and ChannelEvent:
// an id-keyed listener map plus an optional replay of the last notified value.
type listenerSet[L any, T any] struct {
	mu         sync.RWMutex
	listeners  map[uint64]L
	nextID     uint64
	replayLast bool
	last       T
	hasLast    bool
}

func (s *listenerSet[L, T]) init(replayLast bool) {
	s.listeners = make(map[uint64]L)
	s.replayLast = replayLast
}

// add registers l and reports the value that should be replayed to it, if any.
func (s *listenerSet[L, T]) add(l L) (id uint64, replay T, shouldReplay bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.nextID
	s.nextID++
	s.listeners[id] = l
	if s.replayLast && s.hasLast {
		return id, s.last, true
	}
	return id, replay, false
}

func (s *listenerSet[L, T]) remove(id uint64) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

// record stores value as the last event and returns a snapshot of the listeners
// so the caller can deliver outside the lock.
func (s *listenerSet[L, T]) record(value T) []L {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replayLast {
		s.last = value
		s.hasLast = true
	}
	snapshot := make([]L, 0, len(s.listeners))
	for _, l := range s.listeners {
		snapshot = append(snapshot, l)
	}
	return snapshot
}

func (s *listenerSet[L, T]) lastValue() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

func (s *listenerSet[L, T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
