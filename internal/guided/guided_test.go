package guided

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/calisthenics-coach/internal/content"
)

func item(id string, sides SideHandling) MovementItem {
	return MovementItem{ID: id, Name: id, Mode: ModeReps, Reps: 5, SideHandling: sides}
}

func TestNormalizeWarmupMovement(t *testing.T) {
	timed := NormalizeWarmupMovement(content.WarmupMovement{ID: "jacks", Type: "timed", Duration: 30})
	assert.Equal(t, ModeTimed, timed.Mode)
	assert.Equal(t, 30, timed.DurationSeconds)
	assert.Equal(t, SideNone, timed.SideHandling)

	// only the exact type string is timed for warm-ups
	reps := NormalizeWarmupMovement(content.WarmupMovement{ID: "circles", Type: "timed-hold", Reps: 10, PerDirection: true})
	assert.Equal(t, ModeReps, reps.Mode)
	assert.Equal(t, SidePerDirection, reps.SideHandling)
	assert.Equal(t, 10, reps.Reps)
}

func TestNormalizeCooldownStretch(t *testing.T) {
	hold := NormalizeCooldownStretch(content.CooldownStretch{ID: "pigeon", Type: "timed-hold", Duration: 30, PerSide: true})
	assert.Equal(t, ModeTimed, hold.Mode)
	assert.Equal(t, SidePerSide, hold.SideHandling)

	reps := NormalizeCooldownStretch(content.CooldownStretch{ID: "cat-cow", Type: "reps", Reps: 8})
	assert.Equal(t, ModeReps, reps.Mode)
	assert.Equal(t, SideNone, reps.SideHandling)
}

func TestNormalizeBuiltinContent(t *testing.T) {
	lib := content.MustBuiltin()

	warmup := NormalizeWarmupPhases(lib.WarmupPhases())
	require.Len(t, warmup, 4)
	assert.Equal(t, "Joint Mobility", warmup[0].Name)
	assert.Equal(t, SidePerDirection, warmup[0].Items[0].SideHandling)

	cooldown := NormalizeCooldownStretches(lib.CooldownStretches())
	require.Len(t, cooldown, 1)
	assert.Len(t, cooldown[0].Items, 5)
}

func TestSideLabel(t *testing.T) {
	cases := []struct {
		handling SideHandling
		side     Side
		want     string
		ok       bool
	}{
		{SidePerDirection, SideFirst, "Clockwise", true},
		{SidePerDirection, SideSecond, "Counter-clockwise", true},
		{SidePerSide, SideFirst, "Left Side", true},
		{SidePerSide, SideSecond, "Right Side", true},
		{SideNone, SideFirst, "", false},
		{SideNone, SideSecond, "", false},
	}
	for _, tc := range cases {
		got, ok := SideLabel(tc.handling, tc.side)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.ok, ok)
	}
}

func TestStepCounting(t *testing.T) {
	phases := []Phase{{Items: []MovementItem{item("a", SideNone), item("b", SidePerDirection)}}}

	assert.Equal(t, 3, TotalMovementSteps(phases))
	assert.Equal(t, 1, CompletedSteps(phases, 0, 0, SideFirst))
	assert.Equal(t, 2, CompletedSteps(phases, 0, 1, SideFirst))
	assert.Equal(t, 3, CompletedSteps(phases, 0, 1, SideSecond))
	assert.Equal(t, 3, CompletedSteps(phases, 1, 0, SideFirst))
}

func TestStepCounting_MultiplePhases(t *testing.T) {
	phases := []Phase{
		{Items: []MovementItem{item("a", SidePerSide), item("b", SideNone)}},
		{Items: []MovementItem{item("c", SideNone), item("d", SidePerSide)}},
	}
	assert.Equal(t, 6, TotalMovementSteps(phases))
	assert.Equal(t, 4, CompletedSteps(phases, 1, 0, SideFirst))
	assert.Equal(t, 6, CompletedSteps(phases, 1, 1, SideSecond))
	assert.Zero(t, TotalMovementSteps(nil))
}

func TestCompletedSteps_PanicsOutOfRange(t *testing.T) {
	phases := []Phase{{Items: []MovementItem{item("a", SideNone)}}}
	assert.Panics(t, func() { CompletedSteps(phases, 2, 0, SideFirst) })
	assert.Panics(t, func() { CompletedSteps(phases, 0, 1, SideFirst) })
	assert.Panics(t, func() { CompletedSteps(phases, -1, 0, SideFirst) })
}

func TestFlow_WalksSidesMovementsAndPhases(t *testing.T) {
	phases := []Phase{
		{ID: "p1", Items: []MovementItem{item("a", SidePerDirection), item("b", SideNone)}},
		{ID: "empty"},
		{ID: "p2", Items: []MovementItem{item("c", SidePerSide)}},
	}
	f := NewFlow(phases)

	var visited []string
	for !f.Finished() {
		phase, it, ok := f.Current()
		require.True(t, ok)
		label, _ := f.CurrentSideLabel()
		visited = append(visited, phase.ID+"/"+it.ID+"/"+label)
		f.Advance()
	}
	assert.Equal(t, []string{
		"p1/a/Clockwise",
		"p1/a/Counter-clockwise",
		"p1/b/",
		"p2/c/Left Side",
		"p2/c/Right Side",
	}, visited)

	step, total := f.Progress()
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, step)
	assert.False(t, f.Advance())
}

func TestFlow_Progress(t *testing.T) {
	f := NewFlow([]Phase{{Items: []MovementItem{item("a", SideNone), item("b", SidePerDirection)}}})

	step, total := f.Progress()
	assert.Equal(t, 1, step)
	assert.Equal(t, 3, total)

	assert.True(t, f.Advance())
	assert.True(t, f.Advance())
	step, _ = f.Progress()
	assert.Equal(t, 3, step)
	assert.Equal(t, Position{Phase: 0, Movement: 1, Side: SideSecond}, f.Position())

	assert.False(t, f.Advance())
	assert.True(t, f.Finished())
}

func TestFlow_SkipPhaseAndReset(t *testing.T) {
	f := NewFlow([]Phase{
		{ID: "p1", Items: []MovementItem{item("a", SideNone)}},
		{ID: "p2", Items: []MovementItem{item("b", SideNone)}},
	})

	assert.True(t, f.SkipPhase())
	phase, _, _ := f.Current()
	assert.Equal(t, "p2", phase.ID)

	assert.False(t, f.SkipPhase())
	assert.True(t, f.Finished())
	assert.False(t, f.SkipPhase())

	f.Reset()
	phase, _, ok := f.Current()
	require.True(t, ok)
	assert.Equal(t, "p1", phase.ID)
}

func TestFlow_EmptySequence(t *testing.T) {
	f := NewFlow(nil)
	assert.True(t, f.Finished())
	_, _, ok := f.Current()
	assert.False(t, ok)
	_, ok = f.CurrentSideLabel()
	assert.False(t, ok)
	step, total := f.Progress()
	assert.Zero(t, step)
	assert.Zero(t, total)
}
