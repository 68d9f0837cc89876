package trainer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/calisthenics-coach/internal/events"
	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
	"github.com/lowaak/calisthenics-coach/internal/history"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
	"github.com/lowaak/calisthenics-coach/internal/settings"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// HistoryView is what the history page renders
type HistoryView struct {
	Sessions  []history.SessionRecord
	Exercises []history.ExerciseRecord
}

// SettingsView is what the settings page renders
type SettingsView struct {
	Settings settings.Data
	Voice    voice.PreferencesData
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	workoutViewEvent      *events.ChannelEvent[WorkoutView]
	workoutView           WorkoutView
	voiceStatusEvent      *events.ChannelEvent[voice.Status]
	voiceStatus           voice.Status
	historyEvent          *events.ChannelEvent[HistoryView]
	historyView           HistoryView
	settingsEvent         *events.ChannelEvent[SettingsView]
	settingsView          SettingsView
	persistence           *uiModelPersistence
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(logger *log.Logger, uiLogChan <-chan string, kv kvstore.Store) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	if kv == nil {
		panic("UIModel: kv cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	persistence := newUIModelPersistence(kv, logger)
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: persistence.lastMode()},
		workoutViewEvent:      events.NewChannelEvent[WorkoutView](true),
		workoutView:           WorkoutView{Surface: SurfaceNone},
		voiceStatusEvent:      events.NewChannelEvent[voice.Status](true),
		historyEvent:          events.NewChannelEvent[HistoryView](true),
		settingsEvent:         events.NewChannelEvent[SettingsView](true),
		persistence:           persistence,
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	go_func_utils.SafeGoWG(model.logger, &model.wg, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode, remembers it for the next start and
// notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.persistence.setLastMode(mode)
	m.uiStateEvent.Notify(state)
}

// LastWorkoutID is the workout started most recently, across runs
func (m *UIModel) LastWorkoutID() string {
	return m.persistence.lastWorkoutID()
}

func (m *UIModel) SetLastWorkoutID(workoutID string) {
	m.persistence.setLastWorkoutID(workoutID)
}

// ListenToWorkoutView registers a channel to receive workout view updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToWorkoutView(ch chan<- WorkoutView) func() {
	return m.workoutViewEvent.Listen(ch)
}

// GetWorkoutView returns the current workout view
func (m *UIModel) GetWorkoutView() WorkoutView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workoutView
}

// SetWorkoutView updates the workout view and notifies listeners
func (m *UIModel) SetWorkoutView(view WorkoutView) {
	m.mu.Lock()
	m.workoutView = view
	m.mu.Unlock()

	m.workoutViewEvent.Notify(view)
}

// ListenToVoiceStatus registers a channel to receive voice status updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToVoiceStatus(ch chan<- voice.Status) func() {
	return m.voiceStatusEvent.Listen(ch)
}

func (m *UIModel) GetVoiceStatus() voice.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.voiceStatus
}

func (m *UIModel) SetVoiceStatus(status voice.Status) {
	m.mu.Lock()
	m.voiceStatus = status
	m.mu.Unlock()

	m.voiceStatusEvent.Notify(status)
}

// ListenToHistory registers a channel to receive history page updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToHistory(ch chan<- HistoryView) func() {
	return m.historyEvent.Listen(ch)
}

func (m *UIModel) GetHistory() HistoryView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyView
}

func (m *UIModel) SetHistory(view HistoryView) {
	m.mu.Lock()
	m.historyView = view
	m.mu.Unlock()

	m.historyEvent.Notify(view)
}

// ListenToSettings registers a channel to receive settings page updates
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToSettings(ch chan<- SettingsView) func() {
	return m.settingsEvent.Listen(ch)
}

func (m *UIModel) GetSettings() SettingsView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settingsView
}

// SetSettings replaces the app settings half of the settings view
func (m *UIModel) SetSettings(data settings.Data) {
	m.mu.Lock()
	m.settingsView.Settings = data
	view := m.settingsView
	m.mu.Unlock()

	m.settingsEvent.Notify(view)
}

// SetVoicePreferences replaces the voice half of the settings view
func (m *UIModel) SetVoicePreferences(prefs voice.PreferencesData) {
	m.mu.Lock()
	m.settingsView.Voice = prefs
	view := m.settingsView
	m.mu.Unlock()

	m.settingsEvent.Notify(view)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				// Channel closed
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				// Remove oldest lines, keep the most recent maxLogLines
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			// Notify listeners for immediate display
			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
