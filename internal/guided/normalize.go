// Package guided turns warm-up and cool-down content into one movement shape
// and tracks position through a guided sequence.
package guided

import (
	"fmt"
	"strings"

	"github.com/lowaak/calisthenics-coach/internal/content"
)

type Mode string

const (
	ModeReps  Mode = "reps"
	ModeTimed Mode = "timed"
)

type SideHandling string

const (
	SideNone         SideHandling = "none"
	SidePerDirection SideHandling = "per-direction"
	SidePerSide      SideHandling = "per-side"
)

type Side string

const (
	SideFirst  Side = "first"
	SideSecond Side = "second"
)

// MovementItem is a warm-up movement or cool-down stretch in common form
type MovementItem struct {
	ID              string
	Name            string
	Mode            Mode
	Reps            int
	DurationSeconds int
	SideHandling    SideHandling
	Instructions    string
}

// Sided reports whether the item is performed twice, once per side or direction
func (m MovementItem) Sided() bool {
	return m.SideHandling != SideNone
}

// Steps is the number of progress steps the item contributes
func (m MovementItem) Steps() int {
	if m.Sided() {
		return 2
	}
	return 1
}

type Phase struct {
	ID    string
	Name  string
	Items []MovementItem
}

func NormalizeWarmupMovement(m content.WarmupMovement) MovementItem {
	mode := ModeReps
	if m.Type == "timed" {
		mode = ModeTimed
	}
	sides := SideNone
	if m.PerDirection {
		sides = SidePerDirection
	}
	return MovementItem{
		ID:              m.ID,
		Name:            m.Name,
		Mode:            mode,
		Reps:            m.Reps,
		DurationSeconds: m.Duration,
		SideHandling:    sides,
		Instructions:    m.Instructions,
	}
}

func NormalizeCooldownStretch(s content.CooldownStretch) MovementItem {
	mode := ModeReps
	if strings.Contains(s.Type, "timed") {
		mode = ModeTimed
	}
	sides := SideNone
	if s.PerSide {
		sides = SidePerSide
	}
	return MovementItem{
		ID:              s.ID,
		Name:            s.Name,
		Mode:            mode,
		Reps:            s.Reps,
		DurationSeconds: s.Duration,
		SideHandling:    sides,
		Instructions:    s.Instructions,
	}
}

func NormalizeWarmupPhases(phases []content.WarmupPhase) []Phase {
	out := make([]Phase, 0, len(phases))
	for _, p := range phases {
		items := make([]MovementItem, 0, len(p.Movements))
		for _, m := range p.Movements {
			items = append(items, NormalizeWarmupMovement(m))
		}
		out = append(out, Phase{ID: p.ID, Name: p.Name, Items: items})
	}
	return out
}

// NormalizeCooldownStretches wraps all stretches in a single phase
func NormalizeCooldownStretches(stretches []content.CooldownStretch) []Phase {
	items := make([]MovementItem, 0, len(stretches))
	for _, s := range stretches {
		items = append(items, NormalizeCooldownStretch(s))
	}
	return []Phase{{ID: "cooldown", Name: "Cool-down", Items: items}}
}

// SideLabel returns the label for side, or false when the handling has none
func SideLabel(handling SideHandling, side Side) (string, bool) {
	switch handling {
	case SidePerDirection:
		if side == SideSecond {
			return "Counter-clockwise", true
		}
		return "Clockwise", true
	case SidePerSide:
		if side == SideSecond {
			return "Right Side", true
		}
		return "Left Side", true
	default:
		return "", false
	}
}

func TotalMovementSteps(phases []Phase) int {
	total := 0
	for _, p := range phases {
		for _, item := range p.Items {
			total += item.Steps()
		}
	}
	return total
}

// CompletedSteps counts the steps up to and including the one at position
// (phaseIdx, movementIdx, side), so the last side of the last item yields the
// total. phaseIdx == len(phases) means the sequence is finished. Other indices
// outside phases are a caller bug.
func CompletedSteps(phases []Phase, phaseIdx, movementIdx int, side Side) int {
	if phaseIdx < 0 || phaseIdx > len(phases) {
		panic(fmt.Sprintf("guided: phase index %d out of range", phaseIdx))
	}
	completed := 0
	for _, p := range phases[:phaseIdx] {
		for _, item := range p.Items {
			completed += item.Steps()
		}
	}
	if phaseIdx == len(phases) {
		return completed
	}

	items := phases[phaseIdx].Items
	if movementIdx < 0 || movementIdx >= len(items) {
		panic(fmt.Sprintf("guided: movement index %d out of range", movementIdx))
	}
	for _, item := range items[:movementIdx] {
		completed += item.Steps()
	}
	completed++
	if side == SideSecond && items[movementIdx].Sided() {
		completed++
	}
	return completed
}
