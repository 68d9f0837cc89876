package voice

import (
	"sync"

	"github.com/lowaak/calisthenics-coach/internal/events"
	"github.com/lowaak/calisthenics-coach/internal/kvstore"
)

const preferencesKey = "voice"

// PreferencesData is the persisted part of the voice state
type PreferencesData struct {
	Enabled        bool `json:"enabled"`
	ShowSetupModal bool `json:"showSetupModal"`
}

// DefaultPreferences is what a first run starts with
func DefaultPreferences() PreferencesData {
	return PreferencesData{Enabled: false, ShowSetupModal: true}
}

// Preferences owns the persisted voice preferences
type Preferences struct {
	kv      kvstore.Store
	mu      sync.RWMutex
	data    PreferencesData
	changed *events.CallbackEvent[PreferencesData]
}

// NewPreferences loads preferences from kv, falling back to defaults
func NewPreferences(kv kvstore.Store) *Preferences {
	if kv == nil {
		panic("Preferences: kv cannot be nil")
	}
	p := &Preferences{
		kv:      kv,
		data:    DefaultPreferences(),
		changed: events.NewCallbackEvent[PreferencesData](false),
	}
	kv.Load(preferencesKey, &p.data)
	return p
}

func (p *Preferences) Get() PreferencesData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// SetEnabled turns voice control on or off globally
func (p *Preferences) SetEnabled(enabled bool) {
	p.update(func(d *PreferencesData) { d.Enabled = enabled })
}

// DismissSetup records that the voice setup explanation has been seen
func (p *Preferences) DismissSetup() {
	p.update(func(d *PreferencesData) { d.ShowSetupModal = false })
}

// Listen registers fn for preference changes
func (p *Preferences) Listen(fn func(PreferencesData)) func() {
	return p.changed.Listen(fn)
}

func (p *Preferences) update(fn func(*PreferencesData)) {
	p.mu.Lock()
	before := p.data
	fn(&p.data)
	after := p.data
	p.mu.Unlock()

	if before == after {
		return
	}
	p.kv.Save(preferencesKey, after)
	p.changed.Notify(after)
}
