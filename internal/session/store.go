package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/events"
)

var (
	ErrPhaseRegression = errors.New("phase cannot move backwards")
	ErrUnknownPhase    = errors.New("unknown phase")
)

// Advancement is the outcome of finishing one exercise set
type Advancement int

const (
	// NextExercise moved to the second exercise of the pair
	NextExercise Advancement = iota
	// NextSet started the next set of the same pair
	NextSet
	// NextPair moved to the first set of the next pair
	NextPair
	// StrengthDone means every set of every pair is done; the state is unchanged
	StrengthDone
)

func (a Advancement) String() string {
	switch a {
	case NextExercise:
		return "NextExercise"
	case NextSet:
		return "NextSet"
	case NextPair:
		return "NextPair"
	case StrengthDone:
		return "StrengthDone"
	default:
		return fmt.Sprintf("Advancement(%d)", int(a))
	}
}

// Store owns the session state. All operations are serialized and every
// mutation notifies listeners with a fresh snapshot.
type Store struct {
	mu      sync.Mutex
	state   State
	now     func() time.Time
	changed *events.CallbackEvent[State]
}

type Option func(*Store)

// WithClock replaces time.Now as the source of timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		state:   InitialState(),
		now:     time.Now,
		changed: events.NewCallbackEvent[State](false),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Listen registers fn for state changes
func (s *Store) Listen(fn func(State)) func() {
	return s.changed.Listen(fn)
}

func (s *Store) update(fn func(st *State)) State {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.changed.Notify(snapshot)
	return snapshot
}

func (s *Store) timestamp() *time.Time {
	t := s.now()
	return &t
}

// StartWorkout begins workoutID at the warm-up with a clean position
func (s *Store) StartWorkout(workoutID string) {
	s.update(func(st *State) {
		*st = InitialState()
		st.IsActive = true
		st.WorkoutID = workoutID
		st.StartTime = s.timestamp()
		st.SetStartTime = s.timestamp()
	})
}

// SetPhase moves forward to p. Setting the current phase again is allowed.
func (s *Store) SetPhase(p Phase) error {
	rank, ok := phaseOrder[p]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, p)
	}

	s.mu.Lock()
	if current := s.state.Phase; rank < phaseOrder[current] {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrPhaseRegression, current, p)
	}
	s.state.Phase = p
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.changed.Notify(snapshot)
	return nil
}

func (s *Store) IncrementReps() {
	s.update(func(st *State) { st.CurrentReps++ })
}

// DecrementReps removes one rep, stopping at zero
func (s *Store) DecrementReps() {
	s.update(func(st *State) {
		if st.CurrentReps > 0 {
			st.CurrentReps--
		}
	})
}

// SetReps replaces the rep count, as when a number is spoken
func (s *Store) SetReps(reps int) {
	if reps < 0 {
		reps = 0
	}
	s.update(func(st *State) { st.CurrentReps = reps })
}

func (s *Store) SetDuration(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.update(func(st *State) { st.CurrentDuration = seconds })
}

// RecordExerciseSet appends a set to exerciseID's progress. Reps and duration
// are kept only when positive, but every call counts as a completed set.
func (s *Store) RecordExerciseSet(exerciseID string, reps, duration int) {
	s.update(func(st *State) {
		idx := -1
		for i := range st.ExerciseProgress {
			if st.ExerciseProgress[i].ExerciseID == exerciseID {
				idx = i
				break
			}
		}
		if idx < 0 {
			st.ExerciseProgress = append(st.ExerciseProgress, ExerciseProgress{
				ExerciseID:     exerciseID,
				RepsPerSet:     []int{},
				DurationPerSet: []int{},
			})
			idx = len(st.ExerciseProgress) - 1
		}
		p := &st.ExerciseProgress[idx]
		if reps > 0 {
			p.RepsPerSet = append(p.RepsPerSet, reps)
		}
		if duration > 0 {
			p.DurationPerSet = append(p.DurationPerSet, duration)
		}
		p.CompletedSets++
	})
}

// CompleteSet clears the set counters before rest
func (s *Store) CompleteSet() {
	s.update(func(st *State) {
		st.CurrentReps = 0
		st.CurrentDuration = 0
	})
}

func (s *Store) StartRest(seconds int) {
	s.update(func(st *State) {
		st.IsResting = true
		st.RestTimeRemaining = seconds
	})
}

func (s *Store) EndRest() {
	s.update(func(st *State) {
		st.IsResting = false
		st.RestTimeRemaining = 0
	})
}

// UpdateRestTime mirrors the rest timer. Negative values mean overtime.
func (s *Store) UpdateRestTime(seconds int) {
	s.update(func(st *State) { st.RestTimeRemaining = seconds })
}

// MoveToNextExercise toggles between the two exercises of the pair
func (s *Store) MoveToNextExercise() {
	s.update(moveToNextExercise)
}

func moveToNextExercise(st *State) {
	if st.CurrentExerciseInPair == 1 {
		st.CurrentExerciseInPair = 2
	} else {
		st.CurrentExerciseInPair = 1
	}
	st.CurrentReps = 0
	st.CurrentDuration = 0
}

func (s *Store) MoveToNextPair() {
	s.update(moveToNextPair)
}

func moveToNextPair(st *State) {
	st.CurrentPairIndex++
	st.CurrentExerciseInPair = 1
	st.CurrentSet = 1
	st.CurrentReps = 0
	st.CurrentDuration = 0
}

// AdvanceSet increments the set when more than the current one remain out of
// totalSets. It reports whether it did.
func (s *Store) AdvanceSet(totalSets int) bool {
	advanced := false
	s.update(func(st *State) {
		if st.CurrentSet < totalSets {
			st.CurrentSet++
			advanced = true
		}
	})
	return advanced
}

// Advance moves past the current exercise set: to the partner exercise, to the
// next set of the pair, or to the next pair.
func (s *Store) Advance(totalSets, pairCount int) Advancement {
	var result Advancement
	s.update(func(st *State) {
		switch {
		case st.CurrentExerciseInPair == 1:
			moveToNextExercise(st)
			result = NextExercise
		case st.CurrentSet < totalSets:
			st.CurrentSet++
			moveToNextExercise(st)
			result = NextSet
		case st.CurrentPairIndex+1 < pairCount:
			moveToNextPair(st)
			result = NextPair
		default:
			result = StrengthDone
		}
	})
	return result
}

// SetHoldPhase panics on an unknown phase
func (s *Store) SetHoldPhase(h HoldPhase) {
	if !h.Valid() {
		panic(fmt.Sprintf("session: unknown hold phase %q", h))
	}
	s.update(func(st *State) { st.HoldPhase = h })
}

// ResetExerciseState prepares for a new exercise or movement
func (s *Store) ResetExerciseState() {
	s.update(func(st *State) {
		st.CurrentReps = 0
		st.CurrentDuration = 0
		st.HoldPhase = HoldReady
		st.SetStartTime = s.timestamp()
	})
}

func (s *Store) CompleteWarmup() {
	s.update(func(st *State) { st.WarmupStatus = StatusCompleted })
}

func (s *Store) SkipWarmup() {
	s.update(func(st *State) { st.WarmupStatus = StatusSkipped })
}

func (s *Store) CompleteCooldown() {
	s.update(func(st *State) { st.CooldownStatus = StatusCompleted })
}

func (s *Store) SkipCooldown() {
	s.update(func(st *State) { st.CooldownStatus = StatusSkipped })
}

// EndWorkout moves to the summary and stamps the end time
func (s *Store) EndWorkout() {
	s.update(func(st *State) {
		st.Phase = PhaseSummary
		st.EndTime = s.timestamp()
	})
}

// ResetSession discards the session, for abandoning or leaving the summary
func (s *Store) ResetSession() {
	s.update(func(st *State) { *st = InitialState() })
}
