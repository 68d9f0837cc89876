package timing

import (
	"sync"
	"time"
)

// Direction is fixed when a Timer is built
type Direction int

const (
	CountDown Direction = iota
	CountUp
)

func (d Direction) String() string {
	switch d {
	case CountDown:
		return "down"
	case CountUp:
		return "up"
	default:
		return "unknown"
	}
}

// TimerState is a snapshot of a Timer
type TimerState struct {
	Seconds    int
	IsRunning  bool
	IsComplete bool
}

// TimerOptions configures NewTimer
type TimerOptions struct {
	InitialSeconds int
	Direction      Direction
	AutoStart      bool
	OnTick         func(seconds int)
	OnComplete     func()
}

// Timer ticks once per second in one direction.
//
// A count-down timer reports completion exactly once per run, at the tick that
// lands on zero, and then keeps counting into negative values until paused. Rest
// screens rely on that to show how long the user has been over-resting.
type Timer struct {
	scheduler Scheduler
	direction Direction
	initial   int

	mu         sync.Mutex
	state      TimerState
	cancel     func()
	generation uint64
	onTick     func(int)
	onComplete func()
}

// NewTimer creates a Timer on scheduler
func NewTimer(scheduler Scheduler, opts TimerOptions) *Timer {
	if scheduler == nil {
		panic("Timer: scheduler cannot be nil")
	}
	t := &Timer{
		scheduler:  scheduler,
		direction:  opts.Direction,
		initial:    opts.InitialSeconds,
		state:      TimerState{Seconds: opts.InitialSeconds},
		onTick:     opts.OnTick,
		onComplete: opts.OnComplete,
	}
	if opts.AutoStart {
		t.Start()
	}
	return t
}

// Direction returns the direction the timer was built with
func (t *Timer) Direction() Direction {
	return t.direction
}

// State returns the current snapshot
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetHandlers replaces the tick and completion callbacks. A running timer picks
// up the new callbacks on its next tick.
func (t *Timer) SetHandlers(onTick func(int), onComplete func()) {
	t.mu.Lock()
	t.onTick = onTick
	t.onComplete = onComplete
	t.mu.Unlock()
}

// Start begins ticking. It is a no-op on a running timer.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.IsRunning {
		return
	}
	t.state.IsRunning = true
	t.generation++
	gen := t.generation
	t.cancel = t.scheduler.Every(time.Second, func() { t.tick(gen) })
}

// Pause stops ticking and keeps the current value. It is also the teardown path.
func (t *Timer) Pause() {
	t.mu.Lock()
	cancel := t.halt()
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset stops the timer and restores it to newInitial, or to the construction
// value when none is given. Completion is re-armed.
func (t *Timer) Reset(newInitial ...int) {
	t.mu.Lock()
	cancel := t.halt()
	seconds := t.initial
	if len(newInitial) > 0 {
		seconds = newInitial[0]
	}
	t.state = TimerState{Seconds: seconds}
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// halt must be called with mu held; it returns the interval cancel to run after unlocking.
func (t *Timer) halt() func() {
	if !t.state.IsRunning {
		return nil
	}
	t.state.IsRunning = false
	t.generation++
	cancel := t.cancel
	t.cancel = nil
	return cancel
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || !t.state.IsRunning {
		t.mu.Unlock()
		return
	}
	if t.direction == CountUp {
		t.state.Seconds++
	} else {
		t.state.Seconds--
	}
	seconds := t.state.Seconds
	completed := t.direction == CountDown && seconds == 0 && !t.state.IsComplete
	if completed {
		t.state.IsComplete = true
	}
	onTick, onComplete := t.onTick, t.onComplete
	t.mu.Unlock()

	if onTick != nil {
		onTick(seconds)
	}
	if completed && onComplete != nil {
		onComplete()
	}
}
