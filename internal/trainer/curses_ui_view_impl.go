package trainer

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/content"
	"github.com/lowaak/calisthenics-coach/internal/guided"
	"github.com/lowaak/calisthenics-coach/internal/hold"
	"github.com/lowaak/calisthenics-coach/internal/session"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// Page names for tview.Pages
const (
	pageWorkout  = "workout"
	pageHistory  = "history"
	pageSettings = "settings"

	workoutPageList   = "list"
	workoutPageActive = "active"
)

const holdBarWidth = 24

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	controller  *UIController
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Workout mode components
	workoutFlex         *tview.Flex
	workoutPages        *tview.Pages
	workoutList         *tview.List
	workoutDetailsPanel *tview.TextView
	progressPanel       *tview.TextView
	actionPanel         *tview.TextView
	voicePanel          *tview.TextView
	workouts            []content.Workout

	// History mode components
	historyFlex    *tview.Flex
	sessionsPanel  *tview.TextView
	exercisesPanel *tview.TextView
	exerciseNames  map[string]string
	workoutNames   map[string]string

	// Settings mode components
	settingsFlex *tview.Flex
	settingsList *tview.List

	// Input state shared between the tview event loop and model listeners
	mu          sync.Mutex
	view        WorkoutView
	voiceStatus voice.Status
	voicePrefs  voice.PreferencesData
	pointerDown bool
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel, library *content.Library) *CursesUIViewImpl {
	ui := &CursesUIViewImpl{
		logger:        logger,
		app:           app,
		model:         model,
		currentMode:   UIModeWorkout,
		exerciseNames: make(map[string]string),
		workoutNames:  make(map[string]string),
		view:          WorkoutView{Surface: SurfaceNone},
	}
	for _, workout := range library.Workouts() {
		ui.workoutNames[workout.ID] = workout.Name
		for _, pair := range workout.Pairs {
			for _, id := range pair.Exercises {
				if ex, ok := library.Exercise(id); ok {
					ui.exerciseNames[id] = ex.Name
				}
			}
		}
	}
	return ui
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	ui.controller = controller

	// Note: Don't use SetChangedFunc with app.Draw() - it can cause hangs during shutdown
	// when the app has been stopped but log messages are still being written.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initWorkoutMode(controller)
	ui.initHistoryMode()
	ui.initSettingsMode()

	ui.pages.AddPage(pageWorkout, ui.workoutFlex, true, true)
	ui.pages.AddPage(pageHistory, ui.historyFlex, true, false)
	ui.pages.AddPage(pageSettings, ui.settingsFlex, true, false)

	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 3, true).
		AddItem(ui.logView, 0, 2, false)

	ui.setFocusForCurrentMode()
}

func newPanel(title string) *tview.TextView {
	panel := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	panel.SetBorder(true).SetTitle(title)
	return panel
}

func modeHints() string {
	var parts []string
	for _, info := range AllUIModes {
		parts = append(parts, fmt.Sprintf("[yellow]%c[white] %s", info.KeyBinding, info.DisplayName))
	}
	return strings.Join(parts, "  |  ") + "  |  [yellow]Esc[white] Quit"
}

// initWorkoutMode sets up the workout list and the running workout panels
func (ui *CursesUIViewImpl) initWorkoutMode(controller *UIController) {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText(modeHints() + "\n[yellow]v[white] Voice on/off  |  [yellow]x[white] Abandon workout")

	ui.workoutList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Workout selected: index=%d, name=%s", index, mainText)
			controller.OnWorkoutSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateWorkoutDetailsDisplay(index)
		})
	ui.workoutList.SetBorder(true).SetTitle(" Workouts ")

	ui.workoutDetailsPanel = newPanel(" Workout Details ")

	listFlex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.workoutList, 0, 1, true).
		AddItem(ui.workoutDetailsPanel, 0, 1, false)

	ui.progressPanel = newPanel(" Workout ")
	ui.actionPanel = newPanel(" Hold ")

	activeFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.progressPanel, 0, 3, false).
		AddItem(ui.actionPanel, 7, 0, false)

	ui.workoutPages = tview.NewPages().
		AddPage(workoutPageList, listFlex, true, true).
		AddPage(workoutPageActive, activeFlex, true, false)

	ui.voicePanel = newPanel(" Voice ")
	ui.renderVoicePanel()

	ui.workoutFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(ui.workoutPages, 0, 1, true).
		AddItem(ui.voicePanel, 5, 0, false)
}

func (ui *CursesUIViewImpl) initHistoryMode() {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText(modeHints())

	ui.sessionsPanel = newPanel(" Recent Sessions ")
	ui.exercisesPanel = newPanel(" Last Time ")

	ui.historyFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 1, 0, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexColumn).
			AddItem(ui.sessionsPanel, 0, 1, false).
			AddItem(ui.exercisesPanel, 0, 1, false), 0, 1, false)
}

func (ui *CursesUIViewImpl) initSettingsMode() {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText(modeHints() + "\n[yellow]Enter[white] Toggle the selected setting")

	ui.settingsList = tview.NewList().ShowSecondaryText(false)
	ui.settingsList.SetBorder(true).SetTitle(" Settings ")

	ui.settingsFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(ui.settingsList, 0, 1, true)
}

// SetWorkoutList populates the workout selection list
func (ui *CursesUIViewImpl) SetWorkoutList(workouts []content.Workout, selectedID string) {
	ui.workouts = workouts
	ui.workoutList.Clear()

	selected := 0
	for i, workout := range workouts {
		ui.workoutList.AddItem(workout.Name, fmt.Sprintf("%d pairs", len(workout.Pairs)), 0, nil)
		if workout.ID == selectedID {
			selected = i
		}
	}

	if len(workouts) > 0 {
		ui.workoutList.SetCurrentItem(selected)
		ui.updateWorkoutDetailsDisplay(selected)
	}
}

func (ui *CursesUIViewImpl) exerciseName(id string) string {
	if name, ok := ui.exerciseNames[id]; ok {
		return name
	}
	return id
}

func (ui *CursesUIViewImpl) workoutName(id string) string {
	if name, ok := ui.workoutNames[id]; ok {
		return name
	}
	return id
}

// updateWorkoutDetailsDisplay formats and displays the workout details
func (ui *CursesUIViewImpl) updateWorkoutDetailsDisplay(index int) {
	if ui.workoutDetailsPanel == nil {
		return
	}

	var text string

	if index < 0 || index >= len(ui.workouts) {
		text = "\n\n  [yellow]Workout Selection[white]\n\n"
		text += "  Select a workout from the list to view details.\n"
	} else {
		workout := ui.workouts[index]
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", workout.Name)
		text += "  [gray]Warm-up, then each pair alternated set by set, then cool-down[white]\n\n"
		for i, pair := range workout.Pairs {
			text += fmt.Sprintf("  %d. %s + %s [gray](rest %ds)[white]\n", i+1,
				ui.exerciseName(pair.Exercises[0]), ui.exerciseName(pair.Exercises[1]), pair.RestSeconds)
		}
		text += "\n  [green]Press Enter to start this workout[white]\n"
	}

	ui.workoutDetailsPanel.SetText(text)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeWorkout:
		ui.pages.SwitchToPage(pageWorkout)
	case UIModeHistory:
		ui.pages.SwitchToPage(pageHistory)
	case UIModeSettings:
		ui.pages.SwitchToPage(pageSettings)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	switch ui.currentMode {
	case UIModeWorkout:
		ui.app.SetFocus(ui.workoutList)
	case UIModeHistory:
		ui.app.SetFocus(ui.sessionsPanel)
	case UIModeSettings:
		ui.app.SetFocus(ui.settingsList)
	}
}

func (ui *CursesUIViewImpl) workoutActive() bool {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return !ui.view.Idle()
}

// SetupKeyboardHandlers sets up keyboard and mouse event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if event.Key() == tcell.KeyRune && event.Rune() == 'v' {
			controller.ToggleVoice()
			return nil
		}

		if ui.currentMode != UIModeWorkout || !ui.workoutActive() {
			return event
		}

		switch event.Key() {
		case tcell.KeyEnter:
			controller.OnHoldKey(hold.KeyEnter)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				controller.OnHoldKey(hold.KeySpace)
				return nil
			case 'x':
				controller.AbandonWorkout()
				return nil
			}
			if controller.OnActionKey(event.Rune()) {
				return nil
			}
		}
		return event
	})

	ui.app.EnableMouse(true)
	ui.app.SetMouseCapture(func(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
		if ui.currentMode != UIModeWorkout || !ui.workoutActive() {
			return event, action
		}
		x, y := event.Position()
		inside := ui.actionPanel.InRect(x, y)

		ui.mu.Lock()
		down := ui.pointerDown
		switch {
		case action == tview.MouseLeftDown && inside:
			ui.pointerDown = true
		case action == tview.MouseLeftUp && down:
			ui.pointerDown = false
		case action == tview.MouseMove && down && !inside:
			ui.pointerDown = false
		}
		ui.mu.Unlock()

		switch {
		case action == tview.MouseLeftDown && inside:
			controller.OnPointerDown()
			return nil, action
		case action == tview.MouseLeftUp && down:
			if inside {
				controller.OnPointerUp()
			} else {
				controller.OnPointerLeave()
			}
			return nil, action
		case action == tview.MouseMove && down && !inside:
			controller.OnPointerLeave()
		}
		return event, action
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, line)
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateWorkoutView renders the running workout or, when idle, the list
func (ui *CursesUIViewImpl) UpdateWorkoutView(view WorkoutView) {
	ui.mu.Lock()
	wasIdle := ui.view.Idle()
	ui.view = view
	if view.Idle() {
		ui.pointerDown = false
	}
	ui.mu.Unlock()

	if view.Idle() {
		ui.workoutPages.SwitchToPage(workoutPageList)
		if !wasIdle && ui.currentMode == UIModeWorkout {
			ui.app.SetFocus(ui.workoutList)
		}
		return
	}
	ui.workoutPages.SwitchToPage(workoutPageActive)
	ui.progressPanel.SetTitle(fmt.Sprintf(" %s ", view.Workout.Name))
	ui.progressPanel.SetText(formatWorkoutView(view, ui.exerciseName))
	ui.actionPanel.SetText(formatActionPanel(view))
}

func formatWorkoutView(view WorkoutView, exerciseName func(string) string) string {
	var b strings.Builder
	b.WriteString("\n")

	if view.Session.StartTime != nil {
		fmt.Fprintf(&b, "  [gray]Elapsed:[white] %s\n\n", formatDurationMMSS(view.Session.Elapsed(time.Now())))
	}

	switch view.Surface {
	case SurfaceGuided:
		writeGuided(&b, view)
	case SurfaceRepCounter:
		writeStrengthHeader(&b, view)
		fmt.Fprintf(&b, "  [gray]Reps:[white] [yellow]%d[white]", view.Session.CurrentReps)
		if view.Exercise.TargetReps > 0 {
			fmt.Fprintf(&b, " [gray]/ target %d[white]", view.Exercise.TargetReps)
		}
		b.WriteString("\n")
		writeLastTime(&b, view)
		b.WriteString("\n  [yellow]Space[white] +1  [yellow]+[white]/[yellow]-[white] Adjust  [yellow]u[white] Undo  [yellow]d[white] Done\n")
	case SurfaceTimedHold:
		writeStrengthHeader(&b, view)
		switch view.Session.HoldPhase {
		case session.HoldReady:
			fmt.Fprintf(&b, "  [gray]Target:[white] %ds\n", view.Exercise.TargetDuration)
			b.WriteString("\n  [yellow]Space[white]/[yellow]r[white] Get ready\n")
		case session.HoldCountdown:
			fmt.Fprintf(&b, "  [yellow]Starting in %d...[white]\n", view.HoldSeconds)
			b.WriteString("\n  [yellow]Space[white]/[yellow]s[white] Cancel\n")
		case session.HoldActive:
			fmt.Fprintf(&b, "  [gray]Holding:[white] [yellow]%s[white] [gray]/ target %ds[white]\n",
				formatDurationMMSS(time.Duration(view.HoldSeconds)*time.Second), view.Exercise.TargetDuration)
			b.WriteString("\n  [yellow]Space[white]/[yellow]s[white] Stop\n")
		}
		writeLastTime(&b, view)
	case SurfaceRest:
		writeStrengthHeader(&b, view)
		if view.RestSeconds >= 0 {
			fmt.Fprintf(&b, "  [green]Rest:[white] [yellow]%s[white]\n", formatDurationMMSS(time.Duration(view.RestSeconds)*time.Second))
		} else {
			fmt.Fprintf(&b, "  [red]Rest over by %s[white]\n", formatDurationMMSS(time.Duration(-view.RestSeconds)*time.Second))
		}
		b.WriteString("\n  [yellow]Space[white]/[yellow]k[white] Skip rest  [yellow]e[white] +30s\n")
	case SurfaceSummary:
		writeSummary(&b, view, exerciseName)
	default:
		b.WriteString("  [gray]Preparing...[white]\n")
	}

	if view.Message != "" {
		fmt.Fprintf(&b, "\n  [red]%s[white]\n", view.Message)
	}
	return b.String()
}

func writeGuided(b *strings.Builder, view WorkoutView) {
	g := view.Guided
	if g == nil {
		return
	}
	section := "Warm-up"
	if view.Session.Phase == session.PhaseCooldown {
		section = "Cool-down"
	}
	fmt.Fprintf(b, "  [cyan]%s[white] %s (%d/%d)\n", section, g.PhaseName, g.PhaseIndex+1, g.PhaseCount)
	fmt.Fprintf(b, "  [gray]Step %d of %d[white]\n\n", g.Step, g.TotalSteps)
	fmt.Fprintf(b, "  [yellow]%s[white]", g.Item.Name)
	if g.SideLabel != "" {
		fmt.Fprintf(b, " [gray](%s)[white]", g.SideLabel)
	}
	b.WriteString("\n")
	if g.Item.Instructions != "" {
		fmt.Fprintf(b, "  [gray]%s[white]\n", g.Item.Instructions)
	}
	b.WriteString("\n")
	if g.Item.Mode == guided.ModeTimed {
		state := "press Space to start"
		if g.TimerRunning {
			state = "running"
		}
		fmt.Fprintf(b, "  [gray]Timer:[white] [yellow]%ds[white] [gray](%s)[white]\n", g.TimerSeconds, state)
	} else {
		fmt.Fprintf(b, "  [gray]Reps:[white] %d [gray]/ %d[white]\n", view.Session.CurrentReps, g.Item.Reps)
	}
	b.WriteString("\n  [yellow]Space[white] Next  [yellow]k[white] Skip phase  [yellow]S[white] Skip section\n")
}

func writeStrengthHeader(b *strings.Builder, view WorkoutView) {
	st := view.Session
	fmt.Fprintf(b, "  [cyan]Pair %d/%d[white]  [gray]Set %d of %d[white]\n",
		st.CurrentPairIndex+1, len(view.Workout.Pairs), st.CurrentSet, view.TotalSets)
	fmt.Fprintf(b, "  [gray]Progress:[white] %d/%d\n\n", view.Strength.Display, view.Strength.Total)
	if view.HasExercise {
		label := "Up next"
		if !st.IsResting {
			label = "Now"
		}
		fmt.Fprintf(b, "  [gray]%s:[white] [yellow]%s[white]\n", label, view.Exercise.Name)
		if len(view.Exercise.Cues) > 0 && !st.IsResting {
			fmt.Fprintf(b, "  [gray]%s[white]\n", strings.Join(view.Exercise.Cues, " · "))
		}
		b.WriteString("\n")
	}
}

func writeLastTime(b *strings.Builder, view WorkoutView) {
	if !view.HasLastTime {
		return
	}
	switch {
	case view.LastTime.LastReps > 0:
		fmt.Fprintf(b, "  [gray]Last time: %d reps[white]\n", view.LastTime.LastReps)
	case view.LastTime.LastDuration > 0:
		fmt.Fprintf(b, "  [gray]Last time: %ds[white]\n", view.LastTime.LastDuration)
	}
}

func writeSummary(b *strings.Builder, view WorkoutView, exerciseName func(string) string) {
	b.WriteString("  [green]Workout complete[white]\n\n")
	if view.Summary != nil {
		fmt.Fprintf(b, "  [gray]Duration:[white]  %s\n", formatDurationMMSS(view.Summary.Duration()))
		fmt.Fprintf(b, "  [gray]Warm-up:[white]   %s\n", view.Summary.WarmupStatus)
		fmt.Fprintf(b, "  [gray]Cool-down:[white] %s\n\n", view.Summary.CooldownStatus)
	}
	for _, p := range view.Session.ExerciseProgress {
		fmt.Fprintf(b, "  %s: ", exerciseName(p.ExerciseID))
		var sets []string
		for i := 0; i < p.CompletedSets; i++ {
			switch {
			case i < len(p.DurationPerSet) && p.DurationPerSet[i] > 0:
				sets = append(sets, fmt.Sprintf("%ds", p.DurationPerSet[i]))
			case i < len(p.RepsPerSet):
				sets = append(sets, fmt.Sprintf("%d", p.RepsPerSet[i]))
			}
		}
		b.WriteString(strings.Join(sets, ", ") + "\n")
	}
	b.WriteString("\n  [yellow]Space[white]/[yellow]d[white] Back to workouts\n")
}

func formatActionPanel(view WorkoutView) string {
	if view.Surface == SurfaceSummary || view.Surface == SurfaceNone {
		return ""
	}
	filled := int(view.Hold.Progress * holdBarWidth)
	if filled > holdBarWidth {
		filled = holdBarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", holdBarWidth-filled)
	color := "gray"
	if view.Hold.IsHolding {
		color = "green"
	}

	var hint string
	switch view.Surface {
	case SurfaceGuided:
		hint = "skip phase"
	case SurfaceRepCounter:
		hint = "finish set"
	case SurfaceTimedHold:
		hint = "finish set"
	case SurfaceRest:
		hint = "skip rest"
	}
	return fmt.Sprintf("\n  [%s]%s[white]\n  [gray]Tap Space/Enter or click here. Hold to %s.[white]", color, bar, hint)
}

// UpdateVoiceStatus renders the microphone state and last transcript
func (ui *CursesUIViewImpl) UpdateVoiceStatus(status voice.Status) {
	ui.mu.Lock()
	ui.voiceStatus = status
	ui.mu.Unlock()
	ui.renderVoicePanel()
}

func (ui *CursesUIViewImpl) renderVoicePanel() {
	ui.mu.Lock()
	status := ui.voiceStatus
	prefs := ui.voicePrefs
	ui.mu.Unlock()

	var text string
	switch {
	case !status.Supported:
		text = "  [gray]Voice control is not available[white]"
	case !prefs.Enabled && prefs.ShowSetupModal:
		text = "  [yellow]New:[white] control the workout by voice (say \"done\", \"skip\", a number...)\n  Press [yellow]v[white] to enable it"
	case !prefs.Enabled:
		text = "  [gray]Voice off[white] (press [yellow]v[white] to enable)"
	case status.Permission == voice.PermissionDenied:
		text = "  [red]Microphone access denied[white]"
	default:
		mic := "[gray]idle[white]"
		switch status.Mic {
		case voice.MicListening:
			mic = "[green]listening[white] " + levelBar(status.AudioLevel)
		case voice.MicError:
			mic = "[red]error[white]"
		}
		text = fmt.Sprintf("  Mic: %s", mic)
		if status.LastTranscript != "" {
			text += fmt.Sprintf("\n  [gray]Heard:[white] %q", status.LastTranscript)
		}
		if status.LastCommand != nil {
			text += fmt.Sprintf(" [gray]-> %s[white]", status.LastCommand.Type)
		}
	}
	ui.voicePanel.SetText(text)
}

func levelBar(level float64) string {
	const width = 8
	n := int(level * width)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return "[green]" + strings.Repeat("▮", n) + "[gray]" + strings.Repeat("▯", width-n) + "[white]"
}

// UpdateHistory renders the recent sessions and the per-exercise last values
func (ui *CursesUIViewImpl) UpdateHistory(view HistoryView) {
	var sessions strings.Builder
	if len(view.Sessions) == 0 {
		sessions.WriteString("\n  [gray]No sessions yet[white]\n")
	}
	for _, rec := range view.Sessions {
		fmt.Fprintf(&sessions, "\n  [yellow]%s[white] %s\n", rec.EndedAt.Local().Format("2006-01-02 15:04"), ui.workoutName(rec.WorkoutID))
		fmt.Fprintf(&sessions, "    [gray]%s, %d sets, %d exercises, warm-up %s, cool-down %s[white]\n",
			formatDurationMMSS(rec.Duration()), rec.TotalSets, rec.Exercises, rec.WarmupStatus, rec.CooldownStatus)
	}
	ui.sessionsPanel.SetText(sessions.String())

	var exercises strings.Builder
	if len(view.Exercises) == 0 {
		exercises.WriteString("\n  [gray]Nothing recorded yet[white]\n")
	}
	for _, rec := range view.Exercises {
		value := fmt.Sprintf("%d reps", rec.LastReps)
		if rec.LastDuration > 0 {
			value = fmt.Sprintf("%ds", rec.LastDuration)
		}
		fmt.Fprintf(&exercises, "\n  %s: [yellow]%s[white]", ui.exerciseName(rec.ExerciseID), value)
	}
	ui.exercisesPanel.SetText(exercises.String())
}

// UpdateSettings rebuilds the settings list, keeping the selection
func (ui *CursesUIViewImpl) UpdateSettings(view SettingsView) {
	ui.mu.Lock()
	ui.voicePrefs = view.Voice
	ui.mu.Unlock()
	ui.renderVoicePanel()

	if ui.controller == nil {
		return
	}
	controller := ui.controller
	current := ui.settingsList.GetCurrentItem()
	ui.settingsList.Clear()

	for _, cue := range audio.AllCues() {
		cue := cue
		ui.settingsList.AddItem(fmt.Sprintf("%-18s %s", cue.Label(), checkbox(view.Settings.AudioCues.Enabled(cue))), "", 0,
			func() { controller.ToggleCue(cue) })
	}
	ui.settingsList.AddItem(fmt.Sprintf("%-18s %ds", "Hold countdown", view.Settings.HoldCountdown), "", 0, controller.CycleHoldCountdown)
	ui.settingsList.AddItem(fmt.Sprintf("%-18s %s (%d sets)", "Deload mode", checkbox(view.Settings.DeloadMode), view.Settings.TotalSets()), "", 0, controller.ToggleDeload)
	ui.settingsList.AddItem(fmt.Sprintf("%-18s %s", "Voice control", checkbox(view.Voice.Enabled)), "", 0, controller.ToggleVoice)
	ui.settingsList.AddItem("Reset to defaults", "", 0, controller.ResetSettings)

	if current < ui.settingsList.GetItemCount() {
		ui.settingsList.SetCurrentItem(current)
	}
}

func checkbox(on bool) string {
	if on {
		return "[green]on[white]"
	}
	return "[gray]off[white]"
}

// formatDurationMMSS formats a duration as MM:SS
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
