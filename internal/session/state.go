// Package session is the workout session state machine. It holds position,
// counters and per-exercise progress, and never looks up content.
package session

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseStrength Phase = "strength"
	PhaseCooldown Phase = "cooldown"
	PhaseSummary  Phase = "summary"
)

var phaseOrder = map[Phase]int{
	PhaseWarmup:   0,
	PhaseStrength: 1,
	PhaseCooldown: 2,
	PhaseSummary:  3,
}

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// SectionStatus is the outcome of the warm-up or cool-down
type SectionStatus string

const (
	StatusPending   SectionStatus = "pending"
	StatusCompleted SectionStatus = "completed"
	StatusSkipped   SectionStatus = "skipped"
)

// HoldPhase tracks a timed exercise from ready through the hold itself
type HoldPhase string

const (
	HoldReady     HoldPhase = "ready"
	HoldCountdown HoldPhase = "countdown"
	HoldActive    HoldPhase = "active"
	HoldComplete  HoldPhase = "complete"
)

func (h HoldPhase) Valid() bool {
	switch h {
	case HoldReady, HoldCountdown, HoldActive, HoldComplete:
		return true
	}
	return false
}

// ExerciseProgress accumulates the sets recorded for one exercise
type ExerciseProgress struct {
	ExerciseID     string
	CompletedSets  int
	RepsPerSet     []int
	DurationPerSet []int
}

// LastReps returns the reps of the final recorded set, if any
func (p ExerciseProgress) LastReps() (int, bool) {
	if len(p.RepsPerSet) == 0 {
		return 0, false
	}
	return p.RepsPerSet[len(p.RepsPerSet)-1], true
}

// LastDuration returns the duration of the final recorded set, if any
func (p ExerciseProgress) LastDuration() (int, bool) {
	if len(p.DurationPerSet) == 0 {
		return 0, false
	}
	return p.DurationPerSet[len(p.DurationPerSet)-1], true
}

// State is a snapshot of the session. Snapshots never share slices with the
// store.
type State struct {
	IsActive              bool
	WorkoutID             string
	Phase                 Phase
	StartTime             *time.Time
	EndTime               *time.Time
	WarmupStatus          SectionStatus
	CooldownStatus        SectionStatus
	CurrentPairIndex      int
	CurrentExerciseInPair int
	CurrentSet            int
	CurrentReps           int
	CurrentDuration       int
	IsResting             bool
	RestTimeRemaining     int
	HoldPhase             HoldPhase
	SetStartTime          *time.Time
	ExerciseProgress      []ExerciseProgress
}

// InitialState is the state of a fresh or reset session
func InitialState() State {
	return State{
		Phase:                 PhaseWarmup,
		WarmupStatus:          StatusPending,
		CooldownStatus:        StatusPending,
		CurrentExerciseInPair: 1,
		CurrentSet:            1,
		HoldPhase:             HoldReady,
		ExerciseProgress:      []ExerciseProgress{},
	}
}

// Progress returns the recorded progress for exerciseID
func (s State) Progress(exerciseID string) (ExerciseProgress, bool) {
	for _, p := range s.ExerciseProgress {
		if p.ExerciseID == exerciseID {
			return p, true
		}
	}
	return ExerciseProgress{}, false
}

// Elapsed is the session duration, measured to now while it is running
func (s State) Elapsed(now time.Time) time.Duration {
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return now.Sub(*s.StartTime)
}

func (s State) String() string {
	return fmt.Sprintf("session{workout=%q phase=%s pair=%d ex=%d set=%d reps=%d resting=%v}",
		s.WorkoutID, s.Phase, s.CurrentPairIndex, s.CurrentExerciseInPair, s.CurrentSet, s.CurrentReps, s.IsResting)
}

func (s State) clone() State {
	out := s
	out.StartTime = cloneTime(s.StartTime)
	out.EndTime = cloneTime(s.EndTime)
	out.SetStartTime = cloneTime(s.SetStartTime)
	out.ExerciseProgress = make([]ExerciseProgress, len(s.ExerciseProgress))
	for i, p := range s.ExerciseProgress {
		out.ExerciseProgress[i] = ExerciseProgress{
			ExerciseID:     p.ExerciseID,
			CompletedSets:  p.CompletedSets,
			RepsPerSet:     append([]int{}, p.RepsPerSet...),
			DurationPerSet: append([]int{}, p.DurationPerSet...),
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ProgressInfo is the strength progress bar derivation
type ProgressInfo struct {
	Completed int
	Total     int
	Display   int
}

// StrengthProgress derives the progress bar for the strength phase
func StrengthProgress(s State, pairCount, totalSets int) ProgressInfo {
	total := pairCount * 2 * totalSets
	completed := s.CurrentPairIndex*2*totalSets + (s.CurrentSet-1)*2 + (s.CurrentExerciseInPair - 1)
	return ProgressInfo{Completed: completed, Total: total, Display: completed + 1}
}
