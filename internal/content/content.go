// Package content holds the built-in workout library: exercises, workouts,
// warm-up phases and cool-down stretches.
package content

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var builtin []byte

var ErrInvalidLibrary = errors.New("invalid content library")

type ExerciseType string

const (
	ExerciseReps  ExerciseType = "reps"
	ExerciseTimed ExerciseType = "timed"
)

type Exercise struct {
	ID             string       `yaml:"id"`
	Name           string       `yaml:"name"`
	Type           ExerciseType `yaml:"type"`
	TargetReps     int          `yaml:"target_reps"`
	TargetDuration int          `yaml:"target_duration"`
	Muscles        []string     `yaml:"muscles"`
	Cues           []string     `yaml:"cues"`
}

// IsTimed reports whether the exercise is performed as a timed hold
func (e Exercise) IsTimed() bool {
	return e.Type == ExerciseTimed
}

// Pair is two exercises alternated set by set, followed by rest
type Pair struct {
	Exercises   [2]string `yaml:"exercises"`
	RestSeconds int       `yaml:"rest_seconds"`
}

type Workout struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Pairs []Pair `yaml:"pairs"`
}

type WarmupMovement struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Reps         int    `yaml:"reps"`
	Duration     int    `yaml:"duration"`
	PerDirection bool   `yaml:"per_direction"`
	Instructions string `yaml:"instructions"`
}

type WarmupPhase struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	Movements []WarmupMovement `yaml:"movements"`
}

type CooldownStretch struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Reps         int    `yaml:"reps"`
	Duration     int    `yaml:"duration"`
	PerSide      bool   `yaml:"per_side"`
	Instructions string `yaml:"instructions"`
}

type libraryFile struct {
	Exercises []Exercise        `yaml:"exercises"`
	Workouts  []Workout         `yaml:"workouts"`
	Warmup    []WarmupPhase     `yaml:"warmup"`
	Cooldown  []CooldownStretch `yaml:"cooldown"`
}

// Library is read-only after construction
type Library struct {
	exercises map[string]Exercise
	workouts  []Workout
	warmup    []WarmupPhase
	cooldown  []CooldownStretch
}

// Builtin parses the embedded library
func Builtin() (*Library, error) {
	return Parse(builtin)
}

// MustBuiltin is Builtin for callers that treat a broken embedded file as a
// build defect.
func MustBuiltin() *Library {
	lib, err := Builtin()
	if err != nil {
		panic(err)
	}
	return lib
}

// Parse decodes and validates a YAML library
func Parse(raw []byte) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}

	lib := &Library{
		exercises: make(map[string]Exercise, len(file.Exercises)),
		workouts:  file.Workouts,
		warmup:    file.Warmup,
		cooldown:  file.Cooldown,
	}
	for _, e := range file.Exercises {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: exercise without id", ErrInvalidLibrary)
		}
		if _, dup := lib.exercises[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate exercise %q", ErrInvalidLibrary, e.ID)
		}
		if e.Type != ExerciseReps && e.Type != ExerciseTimed {
			return nil, fmt.Errorf("%w: exercise %q has type %q", ErrInvalidLibrary, e.ID, e.Type)
		}
		lib.exercises[e.ID] = e
	}
	for _, w := range file.Workouts {
		for i, p := range w.Pairs {
			for _, id := range p.Exercises {
				if _, ok := lib.exercises[id]; !ok {
					return nil, fmt.Errorf("%w: workout %s pair %d references unknown exercise %q", ErrInvalidLibrary, w.ID, i, id)
				}
			}
		}
	}
	return lib, nil
}

func (l *Library) Exercise(id string) (Exercise, bool) {
	e, ok := l.exercises[id]
	return e, ok
}

func (l *Library) Workouts() []Workout {
	return l.workouts
}

func (l *Library) Workout(id string) (Workout, bool) {
	for _, w := range l.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}

// Pair returns the pair at index in workout id
func (l *Library) Pair(workoutID string, index int) (Pair, bool) {
	w, ok := l.Workout(workoutID)
	if !ok || index < 0 || index >= len(w.Pairs) {
		return Pair{}, false
	}
	return w.Pairs[index], true
}

// PairExercise resolves exerciseInPair (1 or 2) of a pair to its exercise
func (l *Library) PairExercise(workoutID string, pairIndex, exerciseInPair int) (Exercise, bool) {
	p, ok := l.Pair(workoutID, pairIndex)
	if !ok || exerciseInPair < 1 || exerciseInPair > 2 {
		return Exercise{}, false
	}
	return l.Exercise(p.Exercises[exerciseInPair-1])
}

func (l *Library) WarmupPhases() []WarmupPhase {
	return l.warmup
}

func (l *Library) CooldownStretches() []CooldownStretch {
	return l.cooldown
}
