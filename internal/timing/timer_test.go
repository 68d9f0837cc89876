package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

func TestTimer_CountDownCompletesOnceAndContinuesNegative(t *testing.T) {
	clock := NewManualScheduler(epoch)
	completions := 0
	var ticks []int
	timer := NewTimer(clock, TimerOptions{
		InitialSeconds: 3,
		Direction:      CountDown,
		OnTick:         func(s int) { ticks = append(ticks, s) },
		OnComplete:     func() { completions++ },
	})

	timer.Start()
	clock.Advance(3 * time.Second)
	assert.Equal(t, 1, completions)
	assert.True(t, timer.State().IsComplete)

	clock.Advance(4 * time.Second)
	assert.Equal(t, 1, completions, "completion must not refire past zero")
	assert.Equal(t, []int{2, 1, 0, -1, -2, -3, -4}, ticks)
	assert.Equal(t, -4, timer.State().Seconds)
	assert.True(t, timer.State().IsRunning)
}

func TestTimer_ResetRearmsCompletion(t *testing.T) {
	clock := NewManualScheduler(epoch)
	completions := 0
	timer := NewTimer(clock, TimerOptions{
		InitialSeconds: 2,
		Direction:      CountDown,
		AutoStart:      true,
		OnComplete:     func() { completions++ },
	})

	clock.Advance(5 * time.Second)
	require.Equal(t, 1, completions)

	timer.Reset()
	state := timer.State()
	assert.Equal(t, TimerState{Seconds: 2}, state)
	assert.Equal(t, 0, clock.Active(), "reset stops the interval")

	timer.Start()
	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, completions)
}

func TestTimer_ResetToNewValue(t *testing.T) {
	clock := NewManualScheduler(epoch)
	timer := NewTimer(clock, TimerOptions{InitialSeconds: 90, Direction: CountDown})
	timer.Reset(120)
	assert.Equal(t, 120, timer.State().Seconds)
	timer.Reset()
	assert.Equal(t, 90, timer.State().Seconds)
}

func TestTimer_CountUpNeverCompletes(t *testing.T) {
	clock := NewManualScheduler(epoch)
	completed := false
	timer := NewTimer(clock, TimerOptions{
		Direction:  CountUp,
		OnComplete: func() { completed = true },
	})
	timer.Start()
	clock.Advance(10 * time.Second)
	assert.False(t, completed)
	assert.Equal(t, 10, timer.State().Seconds)
}

func TestTimer_PausePreservesValue(t *testing.T) {
	clock := NewManualScheduler(epoch)
	timer := NewTimer(clock, TimerOptions{InitialSeconds: 10, Direction: CountDown})
	timer.Start()
	clock.Advance(3 * time.Second)
	timer.Pause()
	clock.Advance(5 * time.Second)

	state := timer.State()
	assert.Equal(t, 7, state.Seconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 0, clock.Active())
}

func TestTimer_StartTwiceKeepsSingleInterval(t *testing.T) {
	clock := NewManualScheduler(epoch)
	timer := NewTimer(clock, TimerOptions{Direction: CountUp})
	timer.Start()
	timer.Start()
	assert.Equal(t, 1, clock.Active())
	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, timer.State().Seconds)
}

func TestTimer_SetHandlersSwapsCallbacks(t *testing.T) {
	clock := NewManualScheduler(epoch)
	var first, second []int
	timer := NewTimer(clock, TimerOptions{
		Direction: CountUp,
		OnTick:    func(s int) { first = append(first, s) },
	})
	timer.Start()
	clock.Advance(time.Second)
	timer.SetHandlers(func(s int) { second = append(second, s) }, nil)
	clock.Advance(time.Second)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2}, second)
}

func TestTimer_PauseFromTickCallback(t *testing.T) {
	clock := NewManualScheduler(epoch)
	var timer *Timer
	timer = NewTimer(clock, TimerOptions{
		InitialSeconds: 5,
		Direction:      CountDown,
		OnTick: func(s int) {
			if s == 3 {
				timer.Pause()
			}
		},
	})
	timer.Start()
	clock.Advance(10 * time.Second)
	assert.Equal(t, 3, timer.State().Seconds)
}

func TestManualScheduler_FiresInTimeOrder(t *testing.T) {
	clock := NewManualScheduler(epoch)
	var order []string
	cancelFast := clock.Every(300*time.Millisecond, func() { order = append(order, "fast") })
	cancelSlow := clock.Every(time.Second, func() { order = append(order, "slow") })
	clock.Advance(time.Second)
	cancelFast()
	cancelSlow()

	assert.Equal(t, []string{"fast", "fast", "fast", "slow"}, order)
	assert.Equal(t, epoch.Add(time.Second), clock.Now())
	assert.Equal(t, 0, clock.Active())
}
