package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/session"
)

// MemoryStore keeps history for the lifetime of the process
type MemoryStore struct {
	now func() time.Time

	mu        sync.Mutex
	exercises map[string]ExerciseRecord
	sessions  []SessionRecord
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, exercises: make(map[string]ExerciseRecord)}
}

func (m *MemoryStore) RecordSession(ctx context.Context, st session.State, totalSets int) (SessionRecord, error) {
	now := m.now()
	rec := newSessionRecord(st, totalSets, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, rec)
	for _, e := range lastSets(st.ExerciseProgress, now) {
		m.exercises[e.ExerciseID] = merge(m.exercises[e.ExerciseID], e)
	}
	return rec, nil
}

func (m *MemoryStore) Exercise(ctx context.Context, exerciseID string) (ExerciseRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.exercises[exerciseID]
	return rec, ok, nil
}

func (m *MemoryStore) Exercises(ctx context.Context) ([]ExerciseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ExerciseRecord, 0, len(m.exercises))
	for _, rec := range m.exercises {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExerciseID < out[j].ExerciseID })
	return out, nil
}

func (m *MemoryStore) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SessionRecord, len(m.sessions))
	copy(out, m.sessions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
