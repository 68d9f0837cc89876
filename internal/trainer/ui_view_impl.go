package trainer

import (
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard and mouse event handlers
	// controller is used to handle input events
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Workout Mode ---

	// SetWorkoutList populates the workout selection list, preselecting selectedID
	SetWorkoutList(workouts []content.Workout, selectedID string)

	// UpdateWorkoutView renders the running workout, or the list when idle
	UpdateWorkoutView(view WorkoutView)

	// UpdateVoiceStatus renders the microphone and last transcript
	UpdateVoiceStatus(status voice.Status)

	// --- History Mode ---

	UpdateHistory(view HistoryView)

	// --- Settings Mode ---

	UpdateSettings(view SettingsView)
}
