package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
	"github.com/lowaak/calisthenics-coach/internal/guided"
	"github.com/lowaak/calisthenics-coach/internal/history"
	"github.com/lowaak/calisthenics-coach/internal/hold"
	"github.com/lowaak/calisthenics-coach/internal/session"
	"github.com/lowaak/calisthenics-coach/internal/settings"
	"github.com/lowaak/calisthenics-coach/internal/timing"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

var (
	ErrWorkoutInProgress = errors.New("a workout is already in progress")
	ErrUnknownWorkout    = errors.New("unknown workout")
	ErrManagerStopped    = errors.New("workout manager is shut down")
)

// Action is a user intent, whatever its input source
type Action int

const (
	ActionPrimary   Action = iota // quick tap
	ActionSecondary               // completed hold
	ActionIncrement
	ActionDecrement
	ActionDone
	ActionUndo
	ActionReady
	ActionStop
	ActionSkip
	ActionExtend
	ActionSkipSection
)

func (a Action) String() string {
	switch a {
	case ActionPrimary:
		return "primary"
	case ActionSecondary:
		return "secondary"
	case ActionIncrement:
		return "increment"
	case ActionDecrement:
		return "decrement"
	case ActionDone:
		return "done"
	case ActionUndo:
		return "undo"
	case ActionReady:
		return "ready"
	case ActionStop:
		return "stop"
	case ActionSkip:
		return "skip"
	case ActionExtend:
		return "extend"
	case ActionSkipSection:
		return "skip section"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

const (
	DefaultRestExtendSeconds = 30
	restWarningSeconds       = 10
	historyTimeout           = 5 * time.Second
)

// WorkoutViewSink receives every rebuilt view
type WorkoutViewSink interface {
	SetWorkoutView(view WorkoutView)
}

// NewWorkoutManagerArg holds the dependencies of a WorkoutManager
type NewWorkoutManagerArg struct {
	Library           *content.Library
	Session           *session.Store
	Settings          *settings.Store
	History           history.Store
	Player            audio.Player
	Dispatcher        *voice.Dispatcher
	Scheduler         timing.Scheduler
	Sink              WorkoutViewSink
	Logger            *log.Logger
	RestExtendSeconds int
	HoldDuration      time.Duration
	QuickTapThreshold time.Duration
}

// queuedAction is one unit of work for the action loop. done, when set, is
// closed once the view reflecting fn has been published.
type queuedAction struct {
	fn   func()
	done chan struct{}
}

// loopTimer pairs a timer with a generation so callbacks queued before a stop
// are dropped. Only the action loop touches gen.
type loopTimer struct {
	timer *timing.Timer
	gen   uint64
}

// step identifies the point of the workout an action was aimed at. Rep counts,
// durations and rest seconds are left out, so ticks and counting never make an
// action stale.
type step struct {
	surface     Surface
	workoutID   string
	phase       session.Phase
	guided      guided.Position
	guidedTimer bool
	pairIndex   int
	exerciseIdx int
	set         int
	holdPhase   session.HoldPhase
	resting     bool
}

func (lt *loopTimer) stop() {
	lt.gen++
	lt.timer.Pause()
}

// WorkoutManager runs a workout. Every input (keys, pointer, holds, voice,
// timer ticks) becomes an action on one FIFO drained by a single goroutine, so
// session transitions never interleave. After each action the manager
// rebuilds the WorkoutView, pushes it to the sink and points the voice
// dispatcher at the surface now on screen.
type WorkoutManager struct {
	library    *content.Library
	session    *session.Store
	settings   *settings.Store
	history    history.Store
	player     audio.Player
	dispatcher *voice.Dispatcher
	sink       WorkoutViewSink
	logger     *log.Logger
	restExtend int
	detector   *hold.Detector

	// Owned by the action loop
	flow          *guided.Flow
	guidedTimer   loopTimer
	countdown     loopTimer
	holdTimer     loopTimer
	restTimer     loopTimer
	guidedSeconds int
	holdSeconds   int
	lastTime      *history.ExerciseRecord
	summary       *history.SessionRecord
	message       string
	voiceSurface  Surface
	voiceReady    bool

	// Published view and its step (protected by mu)
	mu   sync.RWMutex
	view WorkoutView
	step step

	queueMu sync.Mutex
	queue   []queuedAction
	wake    chan struct{}

	ctx               context.Context
	cancel            context.CancelFunc
	unsubscribeConfig func()
	doneChan          chan struct{}
	wg                sync.WaitGroup
	shutdownOnce      sync.Once
}

// NewWorkoutManager creates a WorkoutManager and starts its action loop
func NewWorkoutManager(args NewWorkoutManagerArg) *WorkoutManager {
	if args.Library == nil {
		panic("WorkoutManager: library cannot be nil")
	}
	if args.Session == nil {
		panic("WorkoutManager: session cannot be nil")
	}
	if args.Settings == nil {
		panic("WorkoutManager: settings cannot be nil")
	}
	if args.History == nil {
		panic("WorkoutManager: history cannot be nil")
	}
	if args.Player == nil {
		panic("WorkoutManager: player cannot be nil")
	}
	if args.Dispatcher == nil {
		panic("WorkoutManager: dispatcher cannot be nil")
	}
	if args.Scheduler == nil {
		panic("WorkoutManager: scheduler cannot be nil")
	}
	if args.Sink == nil {
		panic("WorkoutManager: sink cannot be nil")
	}
	if args.Logger == nil {
		panic("WorkoutManager: logger cannot be nil")
	}
	if args.RestExtendSeconds <= 0 {
		args.RestExtendSeconds = DefaultRestExtendSeconds
	}

	ctx, cancel := context.WithCancel(context.Background())
	wm := &WorkoutManager{
		library:    args.Library,
		session:    args.Session,
		settings:   args.Settings,
		history:    args.History,
		player:     args.Player,
		dispatcher: args.Dispatcher,
		sink:       args.Sink,
		logger:     args.Logger,
		restExtend: args.RestExtendSeconds,
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		doneChan:   make(chan struct{}),
	}
	wm.guidedTimer.timer = timing.NewTimer(args.Scheduler, timing.TimerOptions{Direction: timing.CountDown})
	wm.countdown.timer = timing.NewTimer(args.Scheduler, timing.TimerOptions{Direction: timing.CountDown})
	wm.holdTimer.timer = timing.NewTimer(args.Scheduler, timing.TimerOptions{Direction: timing.CountUp})
	wm.restTimer.timer = timing.NewTimer(args.Scheduler, timing.TimerOptions{Direction: timing.CountDown})

	wm.detector = hold.NewDetector(args.Scheduler, hold.Options{
		HoldDuration:      args.HoldDuration,
		QuickTapThreshold: args.QuickTapThreshold,
		Callbacks: hold.Callbacks{
			OnQuickTap:     func() { wm.postAction(wm.publishedStep(), ActionPrimary) },
			OnHoldComplete: func() { wm.postAction(wm.publishedStep(), ActionSecondary) },
			OnHoldStart:    func() { wm.post(func() {}) },
			OnHoldCancel:   func() { wm.post(func() {}) },
			OnProgress:     func(float64) { wm.post(func() {}) },
		},
	})

	// Deload changes the set count on screen
	wm.unsubscribeConfig = args.Settings.Listen(func(settings.Data) { wm.post(func() {}) })

	go_func_utils.SafeGoWG(wm.logger, &wm.wg, wm.runActionLoop)
	wm.post(func() {})

	return wm
}

// --- Public API: each call runs on the action loop and waits for it ---

// SelectWorkout starts workoutID at the warm-up
func (wm *WorkoutManager) SelectWorkout(workoutID string) error {
	var err error
	if !wm.call(func() { err = wm.startWorkout(workoutID) }) {
		return ErrManagerStopped
	}
	return err
}

// Perform applies a to the step currently on screen
func (wm *WorkoutManager) Perform(a Action) {
	at := wm.publishedStep()
	wm.call(func() { wm.apply(at, a) })
}

// SetCount sets the rep count, as a spoken number does
func (wm *WorkoutManager) SetCount(n int) {
	at := wm.publishedStep()
	wm.call(func() { wm.setCount(at, n) })
}

// Abandon discards the running workout without recording it
func (wm *WorkoutManager) Abandon() {
	wm.call(wm.abandon)
}

// Sync waits until every action queued so far has been applied
func (wm *WorkoutManager) Sync() {
	wm.call(func() {})
}

// View returns the last published view
func (wm *WorkoutManager) View() WorkoutView {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.view
}

// SetVisible tells the voice dispatcher whether the workout page is showing
func (wm *WorkoutManager) SetVisible(visible bool) {
	wm.dispatcher.SetVisible(visible)
}

// --- Hold gesture inputs ---

func (wm *WorkoutManager) PointerDown() { wm.detector.PointerDown() }

func (wm *WorkoutManager) PointerUp() { wm.detector.PointerUp() }

func (wm *WorkoutManager) PointerLeave() { wm.detector.PointerLeave() }

func (wm *WorkoutManager) KeyDown(key hold.Key) { wm.detector.KeyDown(key) }

func (wm *WorkoutManager) KeyUp(key hold.Key) { wm.detector.KeyUp(key) }

func (wm *WorkoutManager) Blur() { wm.detector.Blur() }

// Shutdown stops timers, the hold detector, the voice dispatcher and the loop.
// Safe to call multiple times - only the first call has effect
func (wm *WorkoutManager) Shutdown() {
	wm.shutdownOnce.Do(func() {
		wm.logger.Printf("WorkoutManager: Shutting down")
		wm.unsubscribeConfig()
		wm.detector.Close()
		for _, t := range []*timing.Timer{wm.guidedTimer.timer, wm.countdown.timer, wm.holdTimer.timer, wm.restTimer.timer} {
			t.Pause()
		}
		wm.dispatcher.Close()
		close(wm.doneChan)
		wm.wg.Wait()
		wm.cancel()
		wm.logger.Printf("WorkoutManager: Shutdown complete")
	})
}

// --- Queue ---

// post queues fn without waiting. It never blocks, so timer, detector and
// recognizer callbacks may call it from any goroutine.
func (wm *WorkoutManager) post(fn func()) bool {
	return wm.enqueue(queuedAction{fn: fn})
}

func (wm *WorkoutManager) enqueue(qa queuedAction) bool {
	select {
	case <-wm.doneChan:
		return false
	default:
	}
	wm.queueMu.Lock()
	wm.queue = append(wm.queue, qa)
	wm.queueMu.Unlock()

	select {
	case wm.wake <- struct{}{}:
	default:
	}
	return true
}

func (wm *WorkoutManager) postAction(at step, a Action) {
	wm.post(func() { wm.apply(at, a) })
}

// call queues fn and waits until its view is published. Must not be called
// from the action loop.
func (wm *WorkoutManager) call(fn func()) bool {
	done := make(chan struct{})
	if !wm.enqueue(queuedAction{fn: fn, done: done}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-wm.doneChan:
		return false
	}
}

func (wm *WorkoutManager) drain() []queuedAction {
	wm.queueMu.Lock()
	defer wm.queueMu.Unlock()
	batch := wm.queue
	wm.queue = nil
	return batch
}

func (wm *WorkoutManager) runActionLoop() {
	for {
		select {
		case <-wm.doneChan:
			wm.logger.Printf("WorkoutManager: Goroutine exiting")
			return
		case <-wm.wake:
			for _, qa := range wm.drain() {
				go_func_utils.Recover(wm.logger, "WorkoutManager", qa.fn)
				wm.publish()
				if qa.done != nil {
					close(qa.done)
				}
			}
		}
	}
}

// --- Action loop only below this line ---

func (wm *WorkoutManager) publishedStep() step {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.step
}

func (wm *WorkoutManager) publish() {
	view := wm.buildView()
	current := wm.currentStep()

	wm.mu.Lock()
	wm.view = view
	wm.step = current
	wm.mu.Unlock()

	if !wm.voiceReady || view.Surface != wm.voiceSurface {
		wm.voiceReady = true
		wm.voiceSurface = view.Surface
		ctx, enabled := view.Surface.voiceContext()
		wm.dispatcher.Configure(ctx, enabled, wm.voiceHandlers(view.Surface))
	}

	// External call after building the view
	wm.sink.SetWorkoutView(view)
}

// voiceHandlers binds spoken commands to the actions of surface. A command is
// aimed at the step on screen when it is recognized; apply drops it if the
// workout moved on before it ran.
func (wm *WorkoutManager) voiceHandlers(surface Surface) voice.Handlers {
	stepOn := func() step {
		at := wm.publishedStep()
		at.surface = surface
		return at
	}
	action := func(a Action) func() {
		return func() { wm.postAction(stepOn(), a) }
	}
	number := func(n int) {
		at := stepOn()
		wm.post(func() { wm.setCount(at, n) })
	}
	switch surface {
	case SurfaceGuided:
		return voice.Handlers{OnNumber: number, OnDone: action(ActionDone), OnSkip: action(ActionSkip), OnReady: action(ActionReady)}
	case SurfaceRepCounter:
		return voice.Handlers{OnNumber: number, OnDone: action(ActionDone), OnUndo: action(ActionUndo)}
	case SurfaceTimedHold:
		return voice.Handlers{OnReady: action(ActionReady), OnStop: action(ActionStop)}
	case SurfaceRest:
		return voice.Handlers{OnSkip: action(ActionSkip), OnExtend: action(ActionExtend)}
	default:
		return voice.Handlers{}
	}
}

func (wm *WorkoutManager) surfaceFor(st session.State) Surface {
	if !st.IsActive {
		return SurfaceNone
	}
	switch st.Phase {
	case session.PhaseSummary:
		return SurfaceSummary
	case session.PhaseWarmup, session.PhaseCooldown:
		if wm.flow == nil || wm.flow.Finished() {
			return SurfaceNone
		}
		return SurfaceGuided
	case session.PhaseStrength:
		if st.IsResting {
			return SurfaceRest
		}
		ex, ok := wm.library.PairExercise(st.WorkoutID, st.CurrentPairIndex, st.CurrentExerciseInPair)
		if !ok {
			return SurfaceNone
		}
		if ex.IsTimed() {
			return SurfaceTimedHold
		}
		return SurfaceRepCounter
	}
	return SurfaceNone
}

func (wm *WorkoutManager) currentStep() step {
	st := wm.session.Snapshot()
	at := step{
		surface:   wm.surfaceFor(st),
		workoutID: st.WorkoutID,
		phase:     st.Phase,
	}
	switch at.surface {
	case SurfaceGuided:
		at.guided = wm.flow.Position()
		at.guidedTimer = wm.guidedTimer.timer.State().IsRunning
	case SurfaceRepCounter, SurfaceTimedHold, SurfaceRest:
		at.pairIndex = st.CurrentPairIndex
		at.exerciseIdx = st.CurrentExerciseInPair
		at.set = st.CurrentSet
		at.holdPhase = st.HoldPhase
		at.resting = st.IsResting
	}
	return at
}

func (wm *WorkoutManager) buildView() WorkoutView {
	st := wm.session.Snapshot()
	view := WorkoutView{
		Surface:     wm.surfaceFor(st),
		Session:     st,
		TotalSets:   wm.settings.Get().TotalSets(),
		Hold:        wm.detector.State(),
		Summary:     wm.summary,
		Message:     wm.message,
		HoldSeconds: wm.holdSeconds,
		RestSeconds: st.RestTimeRemaining,
	}
	workout, ok := wm.library.Workout(st.WorkoutID)
	if ok {
		view.Workout = workout
	}

	switch st.Phase {
	case session.PhaseWarmup, session.PhaseCooldown:
		if wm.flow != nil {
			if phase, item, ok := wm.flow.Current(); ok {
				done, total := wm.flow.Progress()
				side, _ := wm.flow.CurrentSideLabel()
				view.Guided = &GuidedView{
					PhaseName:    phase.Name,
					PhaseIndex:   wm.flow.Position().Phase,
					PhaseCount:   len(wm.flow.Phases()),
					Item:         item,
					SideLabel:    side,
					Step:         done,
					TotalSteps:   total,
					TimerSeconds: wm.guidedSeconds,
					TimerRunning: wm.guidedTimer.timer.State().IsRunning,
				}
			}
		}
	case session.PhaseStrength:
		if ex, ok := wm.library.PairExercise(st.WorkoutID, st.CurrentPairIndex, st.CurrentExerciseInPair); ok {
			view.Exercise = ex
			view.HasExercise = true
		}
		view.Strength = session.StrengthProgress(st, len(workout.Pairs), view.TotalSets)
		if wm.lastTime != nil {
			view.LastTime = *wm.lastTime
			view.HasLastTime = true
		}
	}
	return view
}

func (wm *WorkoutManager) stopTimers() {
	wm.guidedTimer.stop()
	wm.countdown.stop()
	wm.holdTimer.stop()
	wm.restTimer.stop()
}

// arm restarts lt from seconds with callbacks that run on the action loop and
// are ignored once lt is stopped or re-armed.
func (wm *WorkoutManager) arm(lt *loopTimer, seconds int, onTick func(int), onComplete func()) {
	lt.stop()
	gen := lt.gen
	lt.timer.SetHandlers(
		func(s int) {
			wm.post(func() {
				if lt.gen == gen && onTick != nil {
					onTick(s)
				}
			})
		},
		func() {
			wm.post(func() {
				if lt.gen == gen && onComplete != nil {
					onComplete()
				}
			})
		},
	)
	lt.timer.Reset(seconds)
	lt.timer.Start()
}

func (wm *WorkoutManager) apply(at step, a Action) {
	current := wm.currentStep()
	if at != current {
		wm.logger.Printf("WorkoutManager: %s for %s dropped, workout moved on to %s", a, at.surface, current.surface)
		return
	}
	surface := current.surface

	handled := false
	switch surface {
	case SurfaceGuided:
		handled = wm.applyGuided(a)
	case SurfaceRepCounter:
		handled = wm.applyRepCounter(a)
	case SurfaceTimedHold:
		handled = wm.applyTimedHold(a)
	case SurfaceRest:
		handled = wm.applyRest(a)
	case SurfaceSummary:
		if a == ActionPrimary || a == ActionSecondary || a == ActionDone {
			wm.summary = nil
			wm.message = ""
			wm.session.ResetSession()
			wm.logger.Printf("WorkoutManager: Session cleared")
			handled = true
		}
	}
	if !handled {
		wm.logger.Printf("WorkoutManager: %s ignored on %s", a, surface)
	}
}

func (wm *WorkoutManager) setCount(at step, n int) {
	current := wm.currentStep()
	if at != current {
		wm.logger.Printf("WorkoutManager: count %d for %s dropped, workout moved on to %s", n, at.surface, current.surface)
		return
	}
	surface := current.surface
	switch surface {
	case SurfaceRepCounter, SurfaceGuided:
		wm.session.SetReps(n)
	default:
		wm.logger.Printf("WorkoutManager: count %d ignored on %s", n, surface)
	}
}

// --- Workout lifecycle ---

func (wm *WorkoutManager) startWorkout(workoutID string) error {
	if wm.session.Snapshot().IsActive {
		return ErrWorkoutInProgress
	}
	workout, ok := wm.library.Workout(workoutID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWorkout, workoutID)
	}

	wm.stopTimers()
	wm.summary = nil
	wm.message = ""
	wm.lastTime = nil
	wm.session.StartWorkout(workoutID)
	wm.logger.Printf("WorkoutManager: Workout '%s' started", workout.Name)

	wm.flow = guided.NewFlow(guided.NormalizeWarmupPhases(wm.library.WarmupPhases()))
	wm.beginGuidedStep()
	return nil
}

func (wm *WorkoutManager) abandon() {
	if !wm.session.Snapshot().IsActive {
		wm.logger.Printf("WorkoutManager: No workout to abandon")
		return
	}
	wm.stopTimers()
	wm.flow = nil
	wm.summary = nil
	wm.lastTime = nil
	wm.message = ""
	wm.session.ResetSession()
	wm.logger.Printf("WorkoutManager: Workout abandoned")
}

func (wm *WorkoutManager) totals(st session.State) (totalSets, pairCount int) {
	workout, _ := wm.library.Workout(st.WorkoutID)
	return wm.settings.Get().TotalSets(), len(workout.Pairs)
}

func (wm *WorkoutManager) enterStrength() {
	wm.flow = nil
	if err := wm.session.SetPhase(session.PhaseStrength); err != nil {
		wm.logger.Printf("WorkoutManager: %v", err)
		return
	}
	wm.beginExercise()
}

func (wm *WorkoutManager) enterCooldown() {
	if err := wm.session.SetPhase(session.PhaseCooldown); err != nil {
		wm.logger.Printf("WorkoutManager: %v", err)
		return
	}
	wm.lastTime = nil
	wm.flow = guided.NewFlow(guided.NormalizeCooldownStretches(wm.library.CooldownStretches()))
	wm.beginGuidedStep()
}

func (wm *WorkoutManager) finishWorkout() {
	wm.stopTimers()
	wm.flow = nil
	wm.session.EndWorkout()
	st := wm.session.Snapshot()
	totalSets, _ := wm.totals(st)

	ctx, cancel := context.WithTimeout(wm.ctx, historyTimeout)
	defer cancel()
	record, err := wm.history.RecordSession(ctx, st, totalSets)
	if err != nil {
		wm.logger.Printf("WorkoutManager: Failed to record session: %v", err)
		wm.message = "Session could not be saved"
		return
	}
	wm.summary = &record
	wm.logger.Printf("WorkoutManager: Workout complete in %s", record.Duration().Round(time.Second))
}

// --- Guided warm-up and cool-down ---

func (wm *WorkoutManager) beginGuidedStep() {
	wm.guidedTimer.stop()
	if wm.flow == nil || wm.flow.Finished() {
		wm.finishGuidedSection()
		return
	}
	wm.session.ResetExerciseState()
	_, item, _ := wm.flow.Current()
	wm.guidedSeconds = item.DurationSeconds
}

func (wm *WorkoutManager) finishGuidedSection() {
	switch wm.session.Snapshot().Phase {
	case session.PhaseWarmup:
		wm.session.CompleteWarmup()
		wm.enterStrength()
	case session.PhaseCooldown:
		wm.session.CompleteCooldown()
		wm.finishWorkout()
	}
}

func (wm *WorkoutManager) skipSection() {
	wm.guidedTimer.stop()
	switch wm.session.Snapshot().Phase {
	case session.PhaseWarmup:
		wm.session.SkipWarmup()
		wm.logger.Printf("WorkoutManager: Warm-up skipped")
		wm.enterStrength()
	case session.PhaseCooldown:
		wm.session.SkipCooldown()
		wm.logger.Printf("WorkoutManager: Cool-down skipped")
		wm.finishWorkout()
	}
}

func (wm *WorkoutManager) startGuidedTimer() bool {
	_, item, ok := wm.flow.Current()
	if !ok || item.Mode != guided.ModeTimed || wm.guidedTimer.timer.State().IsRunning {
		return false
	}
	wm.arm(&wm.guidedTimer, wm.guidedSeconds,
		func(s int) { wm.guidedSeconds = s },
		func() {
			wm.player.Play(audio.CueHoldComplete)
			wm.advanceGuided()
		})
	return true
}

func (wm *WorkoutManager) advanceGuided() {
	wm.guidedTimer.stop()
	wm.flow.Advance()
	wm.beginGuidedStep()
}

func (wm *WorkoutManager) applyGuided(a Action) bool {
	_, item, _ := wm.flow.Current()
	switch a {
	case ActionPrimary:
		if !wm.startGuidedTimer() {
			wm.advanceGuided()
		}
	case ActionReady:
		return wm.startGuidedTimer()
	case ActionDone:
		wm.advanceGuided()
	case ActionSecondary, ActionSkip:
		wm.guidedTimer.stop()
		wm.flow.SkipPhase()
		wm.beginGuidedStep()
	case ActionSkipSection:
		wm.skipSection()
	case ActionIncrement:
		if item.Mode != guided.ModeReps {
			return false
		}
		wm.session.IncrementReps()
	case ActionDecrement, ActionUndo:
		if item.Mode != guided.ModeReps {
			return false
		}
		wm.session.DecrementReps()
	default:
		return false
	}
	return true
}

// --- Strength ---

func (wm *WorkoutManager) beginExercise() {
	wm.countdown.stop()
	wm.holdTimer.stop()
	wm.holdSeconds = 0
	wm.session.ResetExerciseState()

	st := wm.session.Snapshot()
	ex, ok := wm.library.PairExercise(st.WorkoutID, st.CurrentPairIndex, st.CurrentExerciseInPair)
	if !ok {
		wm.lastTime = nil
		wm.message = fmt.Sprintf("No exercise for pair %d of workout %s", st.CurrentPairIndex+1, st.WorkoutID)
		wm.logger.Printf("WorkoutManager: %s", wm.message)
		return
	}
	wm.message = ""
	wm.lastTime = wm.lookupLastTime(ex.ID)
}

func (wm *WorkoutManager) lookupLastTime(exerciseID string) *history.ExerciseRecord {
	ctx, cancel := context.WithTimeout(wm.ctx, historyTimeout)
	defer cancel()
	record, ok, err := wm.history.Exercise(ctx, exerciseID)
	if err != nil {
		wm.logger.Printf("WorkoutManager: Failed to read history for %s: %v", exerciseID, err)
		return nil
	}
	if !ok {
		return nil
	}
	return &record
}

func (wm *WorkoutManager) applyRepCounter(a Action) bool {
	switch a {
	case ActionPrimary, ActionIncrement:
		wm.session.IncrementReps()
	case ActionDecrement, ActionUndo:
		wm.session.DecrementReps()
	case ActionSecondary, ActionDone:
		wm.finishSet(wm.session.Snapshot().CurrentReps, 0)
	default:
		return false
	}
	return true
}

func (wm *WorkoutManager) applyTimedHold(a Action) bool {
	switch wm.session.Snapshot().HoldPhase {
	case session.HoldReady:
		if a == ActionPrimary || a == ActionReady {
			wm.beginCountdown()
			return true
		}
	case session.HoldCountdown:
		if a == ActionPrimary || a == ActionStop {
			wm.countdown.stop()
			wm.holdSeconds = 0
			wm.session.SetHoldPhase(session.HoldReady)
			wm.logger.Printf("WorkoutManager: Countdown cancelled")
			return true
		}
	case session.HoldActive:
		switch a {
		case ActionPrimary, ActionSecondary, ActionStop, ActionDone:
			wm.holdTimer.stop()
			duration := wm.session.Snapshot().CurrentDuration
			wm.session.SetHoldPhase(session.HoldComplete)
			wm.finishSet(0, duration)
			return true
		}
	}
	return false
}

func (wm *WorkoutManager) beginCountdown() {
	seconds := wm.settings.Get().HoldCountdown
	wm.session.SetHoldPhase(session.HoldCountdown)
	wm.holdSeconds = seconds
	wm.player.Play(audio.CueCountdown)
	wm.arm(&wm.countdown, seconds,
		func(s int) {
			wm.holdSeconds = s
			if s > 0 {
				wm.player.Play(audio.CueCountdown)
			}
		},
		wm.beginHold)
}

func (wm *WorkoutManager) beginHold() {
	wm.countdown.stop()
	wm.session.SetHoldPhase(session.HoldActive)
	wm.session.SetDuration(0)
	wm.holdSeconds = 0

	st := wm.session.Snapshot()
	target := 0
	if ex, ok := wm.library.PairExercise(st.WorkoutID, st.CurrentPairIndex, st.CurrentExerciseInPair); ok {
		target = ex.TargetDuration
	}
	wm.arm(&wm.holdTimer, 0,
		func(s int) {
			wm.holdSeconds = s
			wm.session.SetDuration(s)
			if target > 0 && s == target {
				wm.player.Play(audio.CueHoldComplete)
			}
		}, nil)
}

// finishSet records the set, then rests, unless it was the last set of the
// workout.
func (wm *WorkoutManager) finishSet(reps, duration int) {
	st := wm.session.Snapshot()
	ex, ok := wm.library.PairExercise(st.WorkoutID, st.CurrentPairIndex, st.CurrentExerciseInPair)
	if !ok {
		return
	}
	wm.session.RecordExerciseSet(ex.ID, reps, duration)
	wm.player.Play(audio.CueSetComplete)
	wm.session.CompleteSet()
	wm.logger.Printf("WorkoutManager: %s set %d recorded (reps=%d duration=%ds)", ex.ID, st.CurrentSet, reps, duration)

	totalSets, pairCount := wm.totals(st)
	last := st.CurrentExerciseInPair == 2 && st.CurrentSet >= totalSets && st.CurrentPairIndex+1 >= pairCount
	if last {
		wm.session.Advance(totalSets, pairCount)
		wm.enterCooldown()
		return
	}

	pair, _ := wm.library.Pair(st.WorkoutID, st.CurrentPairIndex)
	wm.startRest(pair.RestSeconds)
}

func (wm *WorkoutManager) startRest(seconds int) {
	wm.session.StartRest(seconds)
	wm.armRest(seconds)
}

// armRest counts the rest down from seconds. At zero it cues and keeps counting
// into overtime until the user ends the rest.
func (wm *WorkoutManager) armRest(seconds int) {
	warn := seconds > restWarningSeconds
	wm.arm(&wm.restTimer, seconds,
		func(s int) {
			wm.session.UpdateRestTime(s)
			if warn && s == restWarningSeconds {
				wm.player.Play(audio.CueRestWarning)
			}
		},
		func() { wm.player.Play(audio.CueRestComplete) })
}

func (wm *WorkoutManager) endRest() {
	wm.restTimer.stop()
	wm.session.EndRest()
	st := wm.session.Snapshot()
	totalSets, pairCount := wm.totals(st)
	advancement := wm.session.Advance(totalSets, pairCount)
	wm.logger.Printf("WorkoutManager: Rest over, %s", advancement)
	if advancement == session.StrengthDone {
		wm.enterCooldown()
		return
	}
	wm.beginExercise()
}

func (wm *WorkoutManager) applyRest(a Action) bool {
	switch a {
	case ActionPrimary, ActionSecondary, ActionSkip:
		wm.endRest()
	case ActionExtend:
		remaining := wm.session.Snapshot().RestTimeRemaining + wm.restExtend
		wm.logger.Printf("WorkoutManager: Rest extended to %ds", remaining)
		wm.session.UpdateRestTime(remaining)
		wm.armRest(remaining)
	default:
		return false
	}
	return true
}
