package trainer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/hold"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
	"github.com/lowaak/calisthenics-coach/internal/session"
	"github.com/lowaak/calisthenics-coach/internal/settings"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

type controllerFixture struct {
	*fixture
	uiKV       *kvstore.Fallback
	model      *UIModel
	controller *UIController
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	uiKV := kvstore.NewMemory(testLogger())
	model := NewUIModel(testLogger(), make(chan string), uiKV)
	t.Cleanup(model.Shutdown)

	f := newFixtureWithSink(t, model)
	controller := NewUIController(NewUIControllerArg{
		Model:          model,
		WorkoutManager: f.manager,
		Library:        f.library,
		Settings:       f.settings,
		VoicePrefs:     f.prefs,
		History:        f.history,
		Scheduler:      f.scheduler,
		Logger:         f.logger,
	})
	t.Cleanup(controller.Shutdown)
	return &controllerFixture{fixture: f, uiKV: uiKV, model: model, controller: controller}
}

func TestUIController_KeyTapCountsRep(t *testing.T) {
	f := newControllerFixture(t)
	f.startStrength(t, "mixed")

	f.controller.OnHoldKey(hold.KeyEnter)
	f.manager.Sync()
	assert.True(t, f.view().Hold.IsHolding)

	// No repeat arrives, so the press is read as a tap
	f.scheduler.Advance(KeyReleaseGap)
	f.manager.Sync()

	view := f.view()
	assert.False(t, view.Hold.IsHolding)
	assert.Equal(t, 1, view.Session.CurrentReps)
	assert.Equal(t, SurfaceRepCounter, view.Surface)
}

func TestUIController_HeldKeyFinishesSetOnce(t *testing.T) {
	f := newControllerFixture(t)
	f.startStrength(t, "mixed")
	f.manager.SetCount(7)

	// Auto-repeat every 50ms for longer than the hold
	for elapsed := time.Duration(0); elapsed < 2500*time.Millisecond; elapsed += 50 * time.Millisecond {
		f.controller.OnHoldKey(hold.KeySpace)
		f.scheduler.Advance(50 * time.Millisecond)
	}
	f.manager.Sync()
	assert.Equal(t, SurfaceRest, f.view().Surface)

	f.scheduler.Advance(KeyReleaseGap)
	f.manager.Sync()

	view := f.view()
	assert.Equal(t, SurfaceRest, view.Surface)
	p, ok := view.Session.Progress("push-ups")
	require.True(t, ok)
	assert.Equal(t, 1, p.CompletedSets)
	assert.Equal(t, []int{7}, p.RepsPerSet)
}

func TestUIController_OtherKeyReleasesHold(t *testing.T) {
	f := newControllerFixture(t)
	f.startStrength(t, "mixed")

	f.controller.OnHoldKey(hold.KeyEnter)
	f.scheduler.Advance(100 * time.Millisecond)
	f.controller.OnHoldKey(hold.KeySpace)
	f.manager.Sync()
	assert.True(t, f.view().Hold.IsHolding)
	assert.Equal(t, 0, f.view().Session.CurrentReps)

	f.scheduler.Advance(KeyReleaseGap)
	f.manager.Sync()
	assert.Equal(t, 1, f.view().Session.CurrentReps)
}

func TestUIController_ActionKeys(t *testing.T) {
	f := newControllerFixture(t)
	f.startStrength(t, "mixed")

	assert.True(t, f.controller.OnActionKey('+'))
	assert.True(t, f.controller.OnActionKey('='))
	assert.True(t, f.controller.OnActionKey('-'))
	assert.Equal(t, 1, f.view().Session.CurrentReps)
	assert.False(t, f.controller.OnActionKey('z'))

	assert.True(t, f.controller.OnActionKey('d'))
	assert.Equal(t, SurfaceRest, f.view().Surface)
	assert.True(t, f.controller.OnActionKey('e'))
	assert.Equal(t, 50, f.view().RestSeconds)
	assert.True(t, f.controller.OnActionKey('k'))
	assert.Equal(t, SurfaceTimedHold, f.view().Surface)
}

func TestUIController_WorkoutSelection(t *testing.T) {
	f := newControllerFixture(t)

	f.controller.OnWorkoutSelected(5)
	assert.True(t, f.view().Idle())
	assert.Empty(t, f.model.LastWorkoutID())

	f.controller.OnWorkoutSelected(1)
	assert.Equal(t, "reps", f.view().Session.WorkoutID)
	assert.Equal(t, "reps", f.model.LastWorkoutID())

	// Busy: the running workout is kept
	f.controller.OnWorkoutSelected(0)
	assert.Equal(t, "reps", f.view().Session.WorkoutID)
	assert.Equal(t, "reps", f.model.LastWorkoutID())

	f.controller.AbandonWorkout()
	assert.True(t, f.view().Idle())

	reloaded := NewUIModel(testLogger(), make(chan string), f.uiKV)
	defer reloaded.Shutdown()
	assert.Equal(t, "reps", reloaded.LastWorkoutID())
}

func TestUIController_ModeChangePausesVoice(t *testing.T) {
	f := newControllerFixture(t)
	f.prefs.SetEnabled(true)
	f.startStrength(t, "mixed")
	require.Equal(t, voice.MicListening, f.dispatcher.Status().Mic)

	f.controller.OnModeChange(UIModeHistory)
	assert.Equal(t, UIModeHistory, f.model.GetUIState().Mode)
	assert.Equal(t, voice.MicIdle, f.dispatcher.Status().Mic)
	assert.Error(t, f.recognizer.Say("done", 0.9, true))

	f.controller.OnModeChange(UIModeWorkout)
	assert.Equal(t, voice.MicListening, f.dispatcher.Status().Mic)
	require.NoError(t, f.recognizer.Say("done", 0.9, true))
	f.manager.Sync()
	assert.Equal(t, SurfaceRest, f.view().Surface)
}

func TestUIController_ModeChangeCancelsHold(t *testing.T) {
	f := newControllerFixture(t)
	f.startStrength(t, "mixed")

	f.controller.OnHoldKey(hold.KeyEnter)
	f.controller.OnModeChange(UIModeSettings)
	f.manager.Sync()
	assert.False(t, f.view().Hold.IsHolding)

	// The cancelled press is not later read as a tap
	f.scheduler.Advance(KeyReleaseGap)
	f.manager.Sync()
	assert.Equal(t, 0, f.view().Session.CurrentReps)
}

func TestUIController_Settings(t *testing.T) {
	f := newControllerFixture(t)

	f.controller.ToggleCue(audio.CueRestWarning)
	assert.False(t, f.settings.CueEnabled(audio.CueRestWarning))
	f.controller.ToggleCue(audio.CueRestWarning)
	assert.True(t, f.settings.CueEnabled(audio.CueRestWarning))

	f.controller.CycleHoldCountdown()
	assert.Equal(t, 2, f.settings.Get().HoldCountdown)
	f.controller.CycleHoldCountdown()
	assert.Equal(t, 3, f.settings.Get().HoldCountdown)

	f.controller.ToggleDeload()
	assert.True(t, f.settings.Get().DeloadMode)
	assert.Equal(t, 2, f.settings.Get().TotalSets())

	f.controller.ToggleVoice()
	prefs := f.prefs.Get()
	assert.True(t, prefs.Enabled)
	assert.False(t, prefs.ShowSetupModal)
	f.controller.ToggleVoice()
	assert.False(t, f.prefs.Get().Enabled)

	f.controller.ToggleCue(audio.CueCountdown)
	f.controller.ResetSettings()
	assert.Equal(t, settings.Defaults(), f.settings.Get())
}

func TestUIController_SettingsReachModel(t *testing.T) {
	f := newControllerFixture(t)
	unsubscribe := f.settings.Listen(f.model.SetSettings)
	defer unsubscribe()
	unsubscribePrefs := f.prefs.Listen(f.model.SetVoicePreferences)
	defer unsubscribePrefs()

	f.controller.ToggleDeload()
	f.controller.ToggleVoice()

	view := f.model.GetSettings()
	assert.True(t, view.Settings.DeloadMode)
	assert.True(t, view.Voice.Enabled)
}

func TestUIController_HistoryRefreshesAfterWorkout(t *testing.T) {
	f := newControllerFixture(t)
	assert.Empty(t, f.model.GetHistory().Sessions)

	f.completeRepsWorkout(t)

	assert.Eventually(t, func() bool {
		return len(f.model.GetHistory().Sessions) == 1
	}, time.Second, 10*time.Millisecond)
	h := f.model.GetHistory()
	assert.Equal(t, "reps", h.Sessions[0].WorkoutID)
	assert.Len(t, h.Exercises, 2)
	assert.Equal(t, session.StatusCompleted, h.Sessions[0].CooldownStatus)

	sessions, err := f.history.RecentSessions(context.Background(), RecentSessionsLimit)
	require.NoError(t, err)
	assert.Equal(t, sessions, h.Sessions)
}

func TestUIController_EscapeRequestsClose(t *testing.T) {
	f := newControllerFixture(t)
	ch := make(chan struct{}, 1)
	unregister := f.model.ListenToCloseApplication(ch)
	defer unregister()

	f.controller.OnEscapeKey()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close was not requested")
	}
}
