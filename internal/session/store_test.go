package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/calisthenics-coach/internal/timing"
)

var epoch = time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

func newStore() (*Store, *timing.ManualScheduler) {
	clock := timing.NewManualScheduler(epoch)
	return NewStore(WithClock(clock.Now)), clock
}

func TestStore_InitialState(t *testing.T) {
	s, _ := newStore()
	st := s.Snapshot()
	assert.False(t, st.IsActive)
	assert.Equal(t, PhaseWarmup, st.Phase)
	assert.Equal(t, StatusPending, st.WarmupStatus)
	assert.Equal(t, StatusPending, st.CooldownStatus)
	assert.Equal(t, HoldReady, st.HoldPhase)
	assert.Equal(t, 1, st.CurrentExerciseInPair)
	assert.Equal(t, 1, st.CurrentSet)
	assert.Empty(t, st.ExerciseProgress)
	assert.Nil(t, st.StartTime)
}

func TestStore_StartWorkout(t *testing.T) {
	s, _ := newStore()
	s.RecordExerciseSet("push-ups", 10, 0)
	s.MoveToNextPair()

	s.StartWorkout("A")
	st := s.Snapshot()
	assert.True(t, st.IsActive)
	assert.Equal(t, "A", st.WorkoutID)
	assert.Equal(t, PhaseWarmup, st.Phase)
	assert.Equal(t, 0, st.CurrentPairIndex)
	assert.Equal(t, 1, st.CurrentExerciseInPair)
	assert.Equal(t, 1, st.CurrentSet)
	assert.Empty(t, st.ExerciseProgress)
	require.NotNil(t, st.StartTime)
	assert.Equal(t, epoch, *st.StartTime)
	require.NotNil(t, st.SetStartTime)
}

func TestStore_PositionInvariants(t *testing.T) {
	s, _ := newStore()
	s.StartWorkout("A")

	s.IncrementReps()
	s.MoveToNextExercise()
	st := s.Snapshot()
	assert.Equal(t, 2, st.CurrentExerciseInPair)
	assert.Zero(t, st.CurrentReps)

	s.MoveToNextExercise()
	assert.Equal(t, 1, s.Snapshot().CurrentExerciseInPair)

	s.AdvanceSet(3)
	s.MoveToNextExercise()
	s.MoveToNextPair()
	st = s.Snapshot()
	assert.Equal(t, 1, st.CurrentPairIndex)
	assert.Equal(t, 1, st.CurrentExerciseInPair)
	assert.Equal(t, 1, st.CurrentSet)
}

func TestStore_Reps(t *testing.T) {
	s, _ := newStore()
	for i := 0; i < 25; i++ {
		s.IncrementReps()
	}
	assert.Equal(t, 25, s.Snapshot().CurrentReps)

	s.SetReps(7)
	s.DecrementReps()
	assert.Equal(t, 6, s.Snapshot().CurrentReps)

	s.SetReps(0)
	s.DecrementReps()
	assert.Zero(t, s.Snapshot().CurrentReps)

	s.SetDuration(42)
	s.CompleteSet()
	st := s.Snapshot()
	assert.Zero(t, st.CurrentReps)
	assert.Zero(t, st.CurrentDuration)
}

func TestStore_RecordExerciseSet(t *testing.T) {
	s, _ := newStore()
	s.RecordExerciseSet("push-ups", 15, 0)
	s.RecordExerciseSet("push-ups", 12, 0)
	s.RecordExerciseSet("plank", 0, 45)
	s.RecordExerciseSet("plank", 0, 0)

	st := s.Snapshot()
	require.Len(t, st.ExerciseProgress, 2)
	assert.Equal(t, ExerciseProgress{
		ExerciseID:     "push-ups",
		CompletedSets:  2,
		RepsPerSet:     []int{15, 12},
		DurationPerSet: []int{},
	}, st.ExerciseProgress[0])

	plank, ok := st.Progress("plank")
	require.True(t, ok)
	assert.Equal(t, 2, plank.CompletedSets)
	assert.Empty(t, plank.RepsPerSet)
	assert.Equal(t, []int{45}, plank.DurationPerSet)

	last, ok := plank.LastDuration()
	assert.True(t, ok)
	assert.Equal(t, 45, last)
	_, ok = plank.LastReps()
	assert.False(t, ok)
}

func TestStore_SnapshotsAreIndependent(t *testing.T) {
	s, _ := newStore()
	s.StartWorkout("A")
	s.RecordExerciseSet("push-ups", 10, 0)

	snap := s.Snapshot()
	snap.ExerciseProgress[0].RepsPerSet[0] = 99
	*snap.StartTime = epoch.Add(time.Hour)

	st := s.Snapshot()
	assert.Equal(t, 10, st.ExerciseProgress[0].RepsPerSet[0])
	assert.Equal(t, epoch, *st.StartTime)
}

func TestStore_SetPhaseForwardOnly(t *testing.T) {
	s, _ := newStore()
	require.NoError(t, s.SetPhase(PhaseStrength))
	require.NoError(t, s.SetPhase(PhaseStrength))

	err := s.SetPhase(PhaseWarmup)
	assert.ErrorIs(t, err, ErrPhaseRegression)
	assert.Equal(t, PhaseStrength, s.Snapshot().Phase)

	assert.ErrorIs(t, s.SetPhase(Phase("stretching")), ErrUnknownPhase)

	// skipping ahead is allowed
	require.NoError(t, s.SetPhase(PhaseSummary))
}

func TestStore_RejectedPhaseDoesNotNotify(t *testing.T) {
	s, _ := newStore()
	require.NoError(t, s.SetPhase(PhaseCooldown))

	var seen []Phase
	unsubscribe := s.Listen(func(st State) { seen = append(seen, st.Phase) })
	defer unsubscribe()

	assert.ErrorIs(t, s.SetPhase(PhaseStrength), ErrPhaseRegression)
	assert.ErrorIs(t, s.SetPhase(Phase("stretching")), ErrUnknownPhase)
	assert.Empty(t, seen)

	require.NoError(t, s.SetPhase(PhaseSummary))
	assert.Equal(t, []Phase{PhaseSummary}, seen)
}

func TestStore_Rest(t *testing.T) {
	s, _ := newStore()
	s.StartRest(90)
	st := s.Snapshot()
	assert.True(t, st.IsResting)
	assert.Equal(t, 90, st.RestTimeRemaining)

	s.UpdateRestTime(-4)
	assert.Equal(t, -4, s.Snapshot().RestTimeRemaining)

	s.EndRest()
	st = s.Snapshot()
	assert.False(t, st.IsResting)
	assert.Zero(t, st.RestTimeRemaining)
}

func TestStore_AdvanceSet(t *testing.T) {
	s, _ := newStore()
	assert.True(t, s.AdvanceSet(2))
	assert.False(t, s.AdvanceSet(2))
	assert.Equal(t, 2, s.Snapshot().CurrentSet)
}

func TestStore_AdvanceWalksWholeWorkout(t *testing.T) {
	s, _ := newStore()
	s.StartWorkout("B")

	var steps []Advancement
	for {
		a := s.Advance(2, 3)
		steps = append(steps, a)
		if a == StrengthDone {
			break
		}
	}
	assert.Equal(t, []Advancement{
		NextExercise, NextSet, NextExercise, NextPair,
		NextExercise, NextSet, NextExercise, NextPair,
		NextExercise, NextSet, NextExercise, StrengthDone,
	}, steps)

	st := s.Snapshot()
	assert.Equal(t, 2, st.CurrentPairIndex)
	assert.Equal(t, 2, st.CurrentExerciseInPair)
	assert.Equal(t, 2, st.CurrentSet)
}

func TestStore_HoldPhase(t *testing.T) {
	s, clock := newStore()
	s.SetHoldPhase(HoldCountdown)
	s.IncrementReps()
	assert.Equal(t, HoldCountdown, s.Snapshot().HoldPhase)

	clock.Advance(5 * time.Second)
	s.ResetExerciseState()
	st := s.Snapshot()
	assert.Equal(t, HoldReady, st.HoldPhase)
	assert.Zero(t, st.CurrentReps)
	assert.Equal(t, epoch.Add(5*time.Second), *st.SetStartTime)

	assert.Panics(t, func() { s.SetHoldPhase(HoldPhase("paused")) })
}

func TestStore_SectionStatusIdempotent(t *testing.T) {
	s, _ := newStore()
	s.SkipWarmup()
	s.SkipWarmup()
	s.CompleteCooldown()
	s.CompleteCooldown()
	st := s.Snapshot()
	assert.Equal(t, StatusSkipped, st.WarmupStatus)
	assert.Equal(t, StatusCompleted, st.CooldownStatus)

	s.CompleteWarmup()
	s.SkipCooldown()
	st = s.Snapshot()
	assert.Equal(t, StatusCompleted, st.WarmupStatus)
	assert.Equal(t, StatusSkipped, st.CooldownStatus)
}

func TestStore_ResetSession(t *testing.T) {
	s, _ := newStore()
	s.StartWorkout("C")
	s.RecordExerciseSet("pull-ups", 5, 0)
	s.StartRest(60)
	s.EndWorkout()

	s.ResetSession()
	assert.Equal(t, InitialState(), s.Snapshot())
}

func TestStore_Listen(t *testing.T) {
	s, _ := newStore()
	var seen []int
	unsubscribe := s.Listen(func(st State) { seen = append(seen, st.CurrentReps) })

	s.IncrementReps()
	s.IncrementReps()
	unsubscribe()
	s.IncrementReps()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestStrengthProgress(t *testing.T) {
	st := InitialState()
	p := StrengthProgress(st, 3, 3)
	assert.Equal(t, ProgressInfo{Completed: 0, Total: 18, Display: 1}, p)

	st.CurrentPairIndex = 1
	st.CurrentSet = 2
	st.CurrentExerciseInPair = 2
	p = StrengthProgress(st, 3, 3)
	assert.Equal(t, 6+2+1, p.Completed)
	assert.Equal(t, 10, p.Display)

	assert.Equal(t, 12, StrengthProgress(InitialState(), 3, 2).Total)
}

func TestStore_EndToEnd(t *testing.T) {
	s, clock := newStore()

	s.StartWorkout("A")
	s.SkipWarmup()
	assert.Equal(t, StatusSkipped, s.Snapshot().WarmupStatus)
	require.NoError(t, s.SetPhase(PhaseStrength))

	for _, reps := range []int{15, 12, 10} {
		clock.Advance(40 * time.Second)
		s.RecordExerciseSet("push-ups", reps, 0)
		s.CompleteSet()
	}
	st := s.Snapshot()
	require.NotEmpty(t, st.ExerciseProgress)
	assert.Equal(t, ExerciseProgress{
		ExerciseID:     "push-ups",
		CompletedSets:  3,
		RepsPerSet:     []int{15, 12, 10},
		DurationPerSet: []int{},
	}, st.ExerciseProgress[0])

	s.MoveToNextPair()
	st = s.Snapshot()
	assert.Equal(t, 1, st.CurrentPairIndex)
	assert.Equal(t, 1, st.CurrentSet)
	assert.Equal(t, 1, st.CurrentExerciseInPair)

	require.NoError(t, s.SetPhase(PhaseCooldown))
	clock.Advance(5 * time.Minute)
	s.CompleteCooldown()
	s.EndWorkout()

	st = s.Snapshot()
	assert.Equal(t, PhaseSummary, st.Phase)
	require.NotNil(t, st.EndTime)
	assert.Equal(t, 3*40*time.Second+5*time.Minute, st.EndTime.Sub(*st.StartTime))
	assert.Equal(t, st.EndTime.Sub(*st.StartTime), st.Elapsed(clock.Now()))
}
