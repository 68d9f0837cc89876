// Package history keeps what the user did last time: the final set of each
// exercise and a log of finished sessions.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/calisthenics-coach/internal/session"
)

// ExerciseRecord is the last recorded set for an exercise. Zero means the
// value was never recorded.
type ExerciseRecord struct {
	ExerciseID   string
	LastReps     int
	LastDuration int
	UpdatedAt    time.Time
}

type SessionRecord struct {
	ID             uuid.UUID
	WorkoutID      string
	StartedAt      time.Time
	EndedAt        time.Time
	WarmupStatus   session.SectionStatus
	CooldownStatus session.SectionStatus
	TotalSets      int
	Exercises      int
}

// Duration is how long the session ran
func (r SessionRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Store persists history. RecordSession is called once per finished workout.
type Store interface {
	RecordSession(ctx context.Context, st session.State, totalSets int) (SessionRecord, error)
	Exercise(ctx context.Context, exerciseID string) (ExerciseRecord, bool, error)
	Exercises(ctx context.Context) ([]ExerciseRecord, error)
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	Close() error
}

// newSessionRecord builds the log entry for a finished session state
func newSessionRecord(st session.State, totalSets int, now time.Time) SessionRecord {
	rec := SessionRecord{
		ID:             uuid.New(),
		WorkoutID:      st.WorkoutID,
		StartedAt:      now,
		EndedAt:        now,
		WarmupStatus:   st.WarmupStatus,
		CooldownStatus: st.CooldownStatus,
		TotalSets:      totalSets,
		Exercises:      len(st.ExerciseProgress),
	}
	if st.StartTime != nil {
		rec.StartedAt = *st.StartTime
	}
	if st.EndTime != nil {
		rec.EndedAt = *st.EndTime
	}
	return rec
}

// lastSets extracts one update per exercise from the final set of its progress.
// Exercises with nothing recorded are left out.
func lastSets(progress []session.ExerciseProgress, now time.Time) []ExerciseRecord {
	var out []ExerciseRecord
	for _, p := range progress {
		reps, hasReps := p.LastReps()
		duration, hasDuration := p.LastDuration()
		if !hasReps && !hasDuration {
			continue
		}
		out = append(out, ExerciseRecord{
			ExerciseID:   p.ExerciseID,
			LastReps:     reps,
			LastDuration: duration,
			UpdatedAt:    now,
		})
	}
	return out
}

// merge applies update over prev, keeping prev values update did not record
func merge(prev, update ExerciseRecord) ExerciseRecord {
	if update.LastReps == 0 {
		update.LastReps = prev.LastReps
	}
	if update.LastDuration == 0 {
		update.LastDuration = prev.LastDuration
	}
	return update
}
