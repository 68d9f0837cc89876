package trainer

import (
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/guided"
	"github.com/lowaak/calisthenics-coach/internal/history"
	"github.com/lowaak/calisthenics-coach/internal/hold"
	"github.com/lowaak/calisthenics-coach/internal/session"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// Surface is the one input surface live at any moment. Keys, holds and voice
// commands are all applied against it.
type Surface string

const (
	SurfaceNone       Surface = "none"
	SurfaceGuided     Surface = "guided"
	SurfaceRepCounter Surface = "repCounter"
	SurfaceTimedHold  Surface = "timedHold"
	SurfaceRest       Surface = "rest"
	SurfaceSummary    Surface = "summary"
)

// voiceContext maps the surface to the vocabulary the dispatcher listens for.
// Surfaces without voice control report false.
func (s Surface) voiceContext() (voice.Context, bool) {
	switch s {
	case SurfaceGuided:
		return voice.ContextGuidedMovement, true
	case SurfaceRepCounter:
		return voice.ContextRepCounter, true
	case SurfaceTimedHold:
		return voice.ContextTimedHold, true
	case SurfaceRest:
		return voice.ContextRest, true
	default:
		return "", false
	}
}

// GuidedView describes the warm-up or cool-down step on screen
type GuidedView struct {
	PhaseName    string
	PhaseIndex   int
	PhaseCount   int
	Item         guided.MovementItem
	SideLabel    string
	Step         int
	TotalSteps   int
	TimerSeconds int
	TimerRunning bool
}

// WorkoutView is everything the workout page renders. It is rebuilt by the
// workout manager after every action.
type WorkoutView struct {
	Surface   Surface
	Session   session.State
	Workout   content.Workout
	TotalSets int

	// Strength
	Exercise    content.Exercise
	HasExercise bool
	Strength    session.ProgressInfo
	LastTime    history.ExerciseRecord
	HasLastTime bool
	HoldSeconds int
	RestSeconds int

	Guided  *GuidedView
	Hold    hold.State
	Summary *history.SessionRecord
	Message string
}

// Idle reports whether no workout is running and the workout list should show
func (v WorkoutView) Idle() bool {
	return !v.Session.IsActive
}
