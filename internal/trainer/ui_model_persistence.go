package trainer

import (
	"log"
	"sync"

	"github.com/lowaak/calisthenics-coach/internal/kvstore"
)

const uiStateKey = "ui_state"

type uiModelPersistenceData struct {
	LastMode      UIMode `json:"last_mode"`
	LastWorkoutID string `json:"last_workout_id"`
}

// uiModelPersistence remembers where the user left the UI
type uiModelPersistence struct {
	kv     kvstore.Store
	logger *log.Logger

	mu   sync.Mutex
	data uiModelPersistenceData
}

func newUIModelPersistence(kv kvstore.Store, logger *log.Logger) *uiModelPersistence {
	p := &uiModelPersistence{kv: kv, logger: logger}
	p.load()
	return p
}

func (p *uiModelPersistence) lastMode() UIMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastMode
}

func (p *uiModelPersistence) setLastMode(mode UIMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.LastMode = mode
	p.save()
}

func (p *uiModelPersistence) lastWorkoutID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastWorkoutID
}

func (p *uiModelPersistence) setLastWorkoutID(workoutID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Printf("UIModelPersistence: setLastWorkoutID -> %q", workoutID)
	p.data.LastWorkoutID = workoutID
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{LastMode: UIModeWorkout}
	if !p.kv.Load(uiStateKey, &p.data) {
		p.logger.Printf("UIModelPersistence: load (no saved UI state)")
		return
	}
	if _, ok := GetUIModeInfo(p.data.LastMode); !ok {
		p.data.LastMode = UIModeWorkout
	}
	p.logger.Printf("UIModelPersistence: load -> mode=%d workout=%q", p.data.LastMode, p.data.LastWorkoutID)
}

// save must be called with mu held
func (p *uiModelPersistence) save() {
	p.kv.Save(uiStateKey, p.data)
}
