package trainer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
	"github.com/lowaak/calisthenics-coach/internal/history"
	"github.com/lowaak/calisthenics-coach/internal/hold"
	"github.com/lowaak/calisthenics-coach/internal/settings"
	"github.com/lowaak/calisthenics-coach/internal/timing"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// NewUIControllerArg holds the dependencies of a UIController
type NewUIControllerArg struct {
	Model          *UIModel
	WorkoutManager *WorkoutManager
	Library        *content.Library
	Settings       *settings.Store
	VoicePrefs     *voice.Preferences
	History        history.Store
	Scheduler      timing.Scheduler
	Logger         *log.Logger
}

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model          *UIModel
	workoutManager *WorkoutManager
	library        *content.Library
	settings       *settings.Store
	voicePrefs     *voice.Preferences
	history        history.Store
	scheduler      timing.Scheduler
	logger         *log.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	// Terminal hold-key tracking (protected by keyMu)
	keyMu         sync.Mutex
	heldKey       hold.Key
	keyRepeated   bool
	lastKeyAt     time.Time
	cancelRelease func()
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(args NewUIControllerArg) *UIController {
	if args.Model == nil {
		panic("UIController: model cannot be nil")
	}
	if args.WorkoutManager == nil {
		panic("UIController: workoutManager cannot be nil")
	}
	if args.Library == nil {
		panic("UIController: library cannot be nil")
	}
	if args.Settings == nil {
		panic("UIController: settings cannot be nil")
	}
	if args.VoicePrefs == nil {
		panic("UIController: voicePrefs cannot be nil")
	}
	if args.History == nil {
		panic("UIController: history cannot be nil")
	}
	if args.Scheduler == nil {
		panic("UIController: scheduler cannot be nil")
	}
	if args.Logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:          args.Model,
		workoutManager: args.WorkoutManager,
		library:        args.Library,
		settings:       args.Settings,
		voicePrefs:     args.VoicePrefs,
		history:        args.History,
		scheduler:      args.Scheduler,
		logger:         args.Logger,
		ctx:            ctx,
		cancel:         cancel,
	}

	c.workoutManager.SetVisible(c.model.GetUIState().Mode == UIModeWorkout)
	c.RefreshHistory()

	go_func_utils.SafeGoWG(c.logger, &c.wg, c.listenToWorkoutView)

	return c
}

// listenToWorkoutView refreshes the history page whenever a session is saved
func (c *UIController) listenToWorkoutView() {
	ch := make(chan WorkoutView, 1)
	unregister := c.model.ListenToWorkoutView(ch)
	defer unregister()

	var lastSummary *history.SessionRecord
	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			view := c.model.GetWorkoutView()
			if view.Summary != nil && (lastSummary == nil || lastSummary.ID != view.Summary.ID) {
				lastSummary = view.Summary
				c.RefreshHistory()
			}
		}
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	// Voice and holds only live on the workout page
	if mode != UIModeWorkout {
		c.releaseHeldKey(false)
		c.workoutManager.Blur()
	}
	c.workoutManager.SetVisible(mode == UIModeWorkout)
	if mode == UIModeHistory {
		c.RefreshHistory()
	}
	c.model.SetMode(mode)
}

// --- Workout Methods ---

// OnWorkoutSelected handles when a workout is selected from the list
func (c *UIController) OnWorkoutSelected(index int) {
	workouts := c.library.Workouts()
	if index < 0 || index >= len(workouts) {
		c.logger.Printf("Invalid workout index: %d", index)
		return
	}

	workout := workouts[index]
	c.logger.Printf("Workout selected: %s", workout.Name)
	if err := c.workoutManager.SelectWorkout(workout.ID); err != nil {
		c.logger.Printf("Cannot start workout: %v", err)
		return
	}
	c.model.SetLastWorkoutID(workout.ID)
}

// OnActionKey applies the action bound to r. It reports whether r is bound.
func (c *UIController) OnActionKey(r rune) bool {
	action, ok := ActionKeys[r]
	if !ok {
		return false
	}
	c.workoutManager.Perform(action)
	return true
}

// AbandonWorkout drops the running workout without saving it
func (c *UIController) AbandonWorkout() {
	c.releaseHeldKey(false)
	c.workoutManager.Abandon()
}

// OnHoldKey handles a Space/Enter press or auto-repeat. Terminals never report
// the release, so it is inferred once repeats stop for KeyReleaseGap. A press
// that never repeated is a tap. Only the first press reaches the detector, so a
// key still held after the hold completed does not start another hold.
func (c *UIController) OnHoldKey(key hold.Key) {
	c.keyMu.Lock()
	other := c.heldKey != "" && c.heldKey != key
	c.keyMu.Unlock()
	if other {
		c.releaseHeldKey(false)
	}

	c.keyMu.Lock()
	if c.cancelRelease != nil {
		c.cancelRelease()
	}
	first := c.heldKey != key
	if first {
		c.heldKey = key
		c.keyRepeated = false
	} else {
		c.keyRepeated = true
	}
	now := c.scheduler.Now()
	c.lastKeyAt = now
	c.cancelRelease = c.scheduler.Every(KeyReleaseGap, func() { c.onKeyReleaseTimeout(key, now) })
	c.keyMu.Unlock()

	if first {
		c.workoutManager.KeyDown(key)
	}
}

func (c *UIController) onKeyReleaseTimeout(key hold.Key, pressedAt time.Time) {
	c.keyMu.Lock()
	stale := c.heldKey != key || !c.lastKeyAt.Equal(pressedAt)
	c.keyMu.Unlock()
	if stale {
		return
	}
	c.releaseHeldKey(true)
}

// releaseHeldKey ends the tracked key press. Without tap the hold is cancelled;
// with it, a press that never repeated becomes a tap.
func (c *UIController) releaseHeldKey(tap bool) {
	c.keyMu.Lock()
	key := c.heldKey
	repeated := c.keyRepeated
	if c.cancelRelease != nil {
		c.cancelRelease()
		c.cancelRelease = nil
	}
	c.heldKey = ""
	c.keyRepeated = false
	c.keyMu.Unlock()

	if key == "" {
		return
	}
	switch {
	case !tap:
		c.workoutManager.Blur()
	case repeated:
		c.workoutManager.KeyUp(key)
	default:
		// The release arrives too late to be measured as a quick tap
		c.workoutManager.Blur()
		c.workoutManager.Perform(ActionPrimary)
	}
}

func (c *UIController) OnPointerDown() {
	c.workoutManager.PointerDown()
}

func (c *UIController) OnPointerUp() {
	c.workoutManager.PointerUp()
}

func (c *UIController) OnPointerLeave() {
	c.workoutManager.PointerLeave()
}

// --- Settings Methods ---

func (c *UIController) ToggleCue(cue audio.Cue) {
	enabled := !c.settings.CueEnabled(cue)
	c.settings.SetCueEnabled(cue, enabled)
	c.logger.Printf("%s cue %s", cue.Label(), onOff(enabled))
}

// CycleHoldCountdown moves to the next countdown choice
func (c *UIController) CycleHoldCountdown() {
	current := c.settings.Get().HoldCountdown
	next := HoldCountdownChoices[0]
	for i, choice := range HoldCountdownChoices {
		if choice == current {
			next = HoldCountdownChoices[(i+1)%len(HoldCountdownChoices)]
			break
		}
	}
	if err := c.settings.SetHoldCountdown(next); err != nil {
		c.logger.Printf("Failed to set hold countdown: %v", err)
		return
	}
	c.logger.Printf("Hold countdown: %ds", next)
}

func (c *UIController) ToggleDeload() {
	enabled := !c.settings.Get().DeloadMode
	c.settings.SetDeloadMode(enabled)
	c.logger.Printf("Deload mode %s", onOff(enabled))
}

// ToggleVoice enables or disables voice control. Enabling also dismisses the
// voice setup hint.
func (c *UIController) ToggleVoice() {
	enabled := !c.voicePrefs.Get().Enabled
	c.voicePrefs.SetEnabled(enabled)
	if enabled {
		c.voicePrefs.DismissSetup()
	}
	c.logger.Printf("Voice control %s", onOff(enabled))
}

func (c *UIController) DismissVoiceSetup() {
	c.voicePrefs.DismissSetup()
}

func (c *UIController) ResetSettings() {
	c.settings.Reset()
	c.logger.Printf("Settings reset to defaults")
}

// --- History Methods ---

// RefreshHistory reloads the history page from the store
func (c *UIController) RefreshHistory() {
	ctx, cancel := context.WithTimeout(c.ctx, historyTimeout)
	defer cancel()

	sessions, err := c.history.RecentSessions(ctx, RecentSessionsLimit)
	if err != nil {
		c.logger.Printf("Failed to load recent sessions: %v", err)
		return
	}
	exercises, err := c.history.Exercises(ctx)
	if err != nil {
		c.logger.Printf("Failed to load exercise history: %v", err)
		return
	}
	c.model.SetHistory(HistoryView{Sessions: sessions, Exercises: exercises})
}

// Shutdown stops the listeners and the workout manager
func (c *UIController) Shutdown() {
	c.releaseHeldKey(false)
	c.cancel()
	c.wg.Wait()
	c.workoutManager.Shutdown()
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
