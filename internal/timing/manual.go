package timing

import (
	"sync"
	"time"
)

type manualEntry struct {
	id       uint64
	interval time.Duration
	next     time.Time
	fn       func()
}

// ManualScheduler is a virtual clock. Nothing happens until Advance is called;
// due callbacks then run synchronously on the caller's goroutine in time order
// (registration order breaks ties).
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	entries map[uint64]*manualEntry
}

var _ Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler creates a virtual clock that reads start until advanced
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		now:     start,
		entries: make(map[uint64]*manualEntry),
	}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 {
		panic("ManualScheduler: interval must be positive")
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.entries[id] = &manualEntry{id: id, interval: interval, next: s.now.Add(interval), fn: fn}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	for {
		due := s.nextDue(target)
		if due == nil {
			break
		}
		s.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

// Active returns the number of live intervals. Tests use it to check that
// every started loop was torn down.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// nextDue must be called with mu held.
func (s *ManualScheduler) nextDue(limit time.Time) *manualEntry {
	var best *manualEntry
	for _, e := range s.entries {
		if e.next.After(limit) {
			continue
		}
		if best == nil || e.next.Before(best.next) || (e.next.Equal(best.next) && e.id < best.id) {
			best = e
		}
	}
	return best
}
