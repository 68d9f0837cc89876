// Package settings holds the user's persisted workout settings.
package settings

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lowaak/calisthenics-coach/internal/audio"
	"github.com/lowaak/calisthenics-coach/internal/events"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
)

const storageKey = "settings"

const (
	DefaultHoldCountdown = 3
	normalSets           = 3
	deloadSets           = 2
)

var ErrInvalidCountdown = errors.New("hold countdown must be 2 or 3 seconds")

type AudioCues struct {
	Countdown    bool `json:"countdown"`
	HoldComplete bool `json:"holdComplete"`
	RestWarning  bool `json:"restWarning"`
	RestComplete bool `json:"restComplete"`
	SetComplete  bool `json:"setComplete"`
}

// Enabled reports whether cue c is switched on
func (a AudioCues) Enabled(c audio.Cue) bool {
	if field := a.field(c); field != nil {
		return *field
	}
	return false
}

func (a *AudioCues) field(c audio.Cue) *bool {
	switch c {
	case audio.CueCountdown:
		return &a.Countdown
	case audio.CueHoldComplete:
		return &a.HoldComplete
	case audio.CueRestWarning:
		return &a.RestWarning
	case audio.CueRestComplete:
		return &a.RestComplete
	case audio.CueSetComplete:
		return &a.SetComplete
	}
	return nil
}

type Data struct {
	AudioCues     AudioCues `json:"audioCues"`
	HoldCountdown int       `json:"holdCountdown"`
	DeloadMode    bool      `json:"deloadMode"`
}

// TotalSets is the number of sets per exercise pair
func (d Data) TotalSets() int {
	if d.DeloadMode {
		return deloadSets
	}
	return normalSets
}

func Defaults() Data {
	return Data{
		AudioCues: AudioCues{
			Countdown:    true,
			HoldComplete: true,
			RestWarning:  true,
			RestComplete: true,
			SetComplete:  true,
		},
		HoldCountdown: DefaultHoldCountdown,
	}
}

func validCountdown(seconds int) bool {
	return seconds == 2 || seconds == 3
}

type Store struct {
	kv      kvstore.Store
	mu      sync.RWMutex
	data    Data
	changed *events.CallbackEvent[Data]
}

// NewStore loads settings from kv. Missing or invalid values fall back to
// defaults.
func NewStore(kv kvstore.Store) *Store {
	if kv == nil {
		panic("Settings: kv cannot be nil")
	}
	s := &Store{
		kv:      kv,
		data:    Defaults(),
		changed: events.NewCallbackEvent[Data](false),
	}
	kv.Load(storageKey, &s.data)
	if !validCountdown(s.data.HoldCountdown) {
		s.data.HoldCountdown = DefaultHoldCountdown
	}
	return s
}

func (s *Store) Get() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// CueEnabled is the audio gate
func (s *Store) CueEnabled(c audio.Cue) bool {
	return s.Get().AudioCues.Enabled(c)
}

func (s *Store) SetCueEnabled(c audio.Cue, enabled bool) {
	s.update(func(d *Data) {
		if field := d.AudioCues.field(c); field != nil {
			*field = enabled
		}
	})
}

func (s *Store) SetHoldCountdown(seconds int) error {
	if !validCountdown(seconds) {
		return fmt.Errorf("%w: got %d", ErrInvalidCountdown, seconds)
	}
	s.update(func(d *Data) { d.HoldCountdown = seconds })
	return nil
}

func (s *Store) SetDeloadMode(enabled bool) {
	s.update(func(d *Data) { d.DeloadMode = enabled })
}

// Reset restores defaults
func (s *Store) Reset() {
	s.update(func(d *Data) { *d = Defaults() })
}

func (s *Store) Listen(fn func(Data)) func() {
	return s.changed.Listen(fn)
}

func (s *Store) update(fn func(*Data)) {
	s.mu.Lock()
	before := s.data
	fn(&s.data)
	after := s.data
	s.mu.Unlock()

	if before == after {
		return
	}
	s.kv.Save(storageKey, after)
	s.changed.Notify(after)
}
