package guided

// Position locates a step within a guided sequence
type Position struct {
	Phase    int
	Movement int
	Side     Side
}

// Flow walks a guided sequence one step at a time. It is not safe for
// concurrent use; the workout manager owns it from its action loop.
type Flow struct {
	phases []Phase
	pos    Position
}

func NewFlow(phases []Phase) *Flow {
	f := &Flow{phases: phases}
	f.Reset()
	return f
}

// Reset moves to the first step
func (f *Flow) Reset() {
	f.pos = Position{Side: SideFirst}
	f.skipEmptyPhases()
}

func (f *Flow) Phases() []Phase {
	return f.phases
}

func (f *Flow) Position() Position {
	return f.pos
}

func (f *Flow) Finished() bool {
	return f.pos.Phase >= len(f.phases)
}

// Current returns the phase and item at the cursor
func (f *Flow) Current() (Phase, MovementItem, bool) {
	if f.Finished() {
		return Phase{}, MovementItem{}, false
	}
	phase := f.phases[f.pos.Phase]
	return phase, phase.Items[f.pos.Movement], true
}

// CurrentSideLabel labels the side being performed, if the item is sided
func (f *Flow) CurrentSideLabel() (string, bool) {
	_, item, ok := f.Current()
	if !ok {
		return "", false
	}
	return SideLabel(item.SideHandling, f.pos.Side)
}

// Advance completes the current step: first side to second side, then the
// next movement, then the next phase. It reports whether a step remains.
func (f *Flow) Advance() bool {
	_, item, ok := f.Current()
	if !ok {
		return false
	}
	if item.Sided() && f.pos.Side == SideFirst {
		f.pos.Side = SideSecond
		return true
	}

	f.pos.Side = SideFirst
	f.pos.Movement++
	if f.pos.Movement >= len(f.phases[f.pos.Phase].Items) {
		f.pos.Phase++
		f.pos.Movement = 0
		f.skipEmptyPhases()
	}
	return !f.Finished()
}

// SkipPhase jumps to the first step of the next phase
func (f *Flow) SkipPhase() bool {
	if f.Finished() {
		return false
	}
	f.pos = Position{Phase: f.pos.Phase + 1, Side: SideFirst}
	f.skipEmptyPhases()
	return !f.Finished()
}

// Progress returns (step, total) where step counts the current step
func (f *Flow) Progress() (int, int) {
	total := TotalMovementSteps(f.phases)
	if f.Finished() {
		return total, total
	}
	return CompletedSteps(f.phases, f.pos.Phase, f.pos.Movement, f.pos.Side), total
}

func (f *Flow) skipEmptyPhases() {
	for f.pos.Phase < len(f.phases) && len(f.phases[f.pos.Phase].Items) == 0 {
		f.pos.Phase++
	}
}
