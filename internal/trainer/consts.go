package trainer

import "time"

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeWorkout  UIMode = iota // Workout selection and the running workout
	UIModeHistory                // Recent sessions and exercise last-values
	UIModeSettings               // Audio cues, hold countdown, deload, voice
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeWorkout, DisplayName: "Workout", KeyBinding: '1'},
	{Mode: UIModeHistory, DisplayName: "History", KeyBinding: '2'},
	{Mode: UIModeSettings, DisplayName: "Settings", KeyBinding: '3'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// ActionKeys maps workout page runes to actions
var ActionKeys = map[rune]Action{
	'+': ActionIncrement,
	'=': ActionIncrement,
	'-': ActionDecrement,
	'd': ActionDone,
	'u': ActionUndo,
	'r': ActionReady,
	's': ActionStop,
	'k': ActionSkip,
	'e': ActionExtend,
	'S': ActionSkipSection,
}

// Terminals report key presses and auto-repeats but no releases. A held
// Space/Enter is considered released once no repeat has arrived for this long,
// which must exceed the usual initial auto-repeat delay.
const KeyReleaseGap = 700 * time.Millisecond

// RecentSessionsLimit is the number of sessions listed on the history page
const RecentSessionsLimit = 20

// Hold countdown choices offered on the settings page
var HoldCountdownChoices = []int{2, 3}
