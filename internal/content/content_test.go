package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Shape(t *testing.T) {
	lib, err := Builtin()
	require.NoError(t, err)

	require.Len(t, lib.Workouts(), 3)
	for _, w := range lib.Workouts() {
		assert.Len(t, w.Pairs, 3, "workout %s", w.ID)
		for _, p := range w.Pairs {
			assert.Positive(t, p.RestSeconds)
		}
	}
	assert.Len(t, lib.WarmupPhases(), 4)
	assert.Len(t, lib.CooldownStretches(), 5)
}

func TestLibrary_Lookups(t *testing.T) {
	lib := MustBuiltin()

	e, ok := lib.PairExercise("A", 0, 1)
	require.True(t, ok)
	assert.Equal(t, "push-ups", e.ID)
	assert.False(t, e.IsTimed())

	plank, ok := lib.Exercise("plank")
	require.True(t, ok)
	assert.True(t, plank.IsTimed())
	assert.Equal(t, 45, plank.TargetDuration)

	_, ok = lib.Workout("Z")
	assert.False(t, ok)
	_, ok = lib.Pair("A", 3)
	assert.False(t, ok)
	_, ok = lib.Pair("A", -1)
	assert.False(t, ok)
	_, ok = lib.PairExercise("A", 0, 3)
	assert.False(t, ok)
	_, ok = lib.Exercise("handstand")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":       "exercises: [",
		"missing id":   "exercises:\n  - name: X\n    type: reps\n",
		"bad type":     "exercises:\n  - id: x\n    type: sprint\n",
		"duplicate":    "exercises:\n  - id: x\n    type: reps\n  - id: x\n    type: reps\n",
		"unknown pair": "exercises:\n  - id: x\n    type: reps\nworkouts:\n  - id: A\n    pairs:\n      - exercises: [x, y]\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidLibrary)
		})
	}
}
