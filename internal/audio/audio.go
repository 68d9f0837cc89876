// Package audio plays short workout cues. Playing is fire-and-forget: sink
// failures are logged and never reach the caller.
package audio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
)

type Cue string

const (
	CueCountdown    Cue = "countdown"
	CueHoldComplete Cue = "holdComplete"
	CueRestWarning  Cue = "restWarning"
	CueRestComplete Cue = "restComplete"
	CueSetComplete  Cue = "setComplete"
)

// AllCues lists every cue in settings order
func AllCues() []Cue {
	return []Cue{CueCountdown, CueHoldComplete, CueRestWarning, CueRestComplete, CueSetComplete}
}

// Label is the human name of a cue
func (c Cue) Label() string {
	switch c {
	case CueCountdown:
		return "Countdown beeps"
	case CueHoldComplete:
		return "Hold complete"
	case CueRestWarning:
		return "Rest warning"
	case CueRestComplete:
		return "Rest complete"
	case CueSetComplete:
		return "Set complete"
	default:
		return string(c)
	}
}

// Player is what the workout screens call
type Player interface {
	Play(cue Cue)
}

// Sink renders a cue somewhere: a terminal bell, a log line
type Sink interface {
	Play(cue Cue) error
}

const queueSize = 16

// GatedPlayer plays cues allowed by gate on every sink from a single worker
// goroutine, so Play never blocks.
type GatedPlayer struct {
	sinks  []Sink
	gate   func(Cue) bool
	logger *log.Logger

	queue     chan Cue
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

var _ Player = (*GatedPlayer)(nil)

// NewGatedPlayer starts the worker. A nil gate allows every cue.
func NewGatedPlayer(logger *log.Logger, gate func(Cue) bool, sinks ...Sink) *GatedPlayer {
	if logger == nil {
		panic("GatedPlayer: logger cannot be nil")
	}
	if gate == nil {
		gate = func(Cue) bool { return true }
	}
	p := &GatedPlayer{
		sinks:  sinks,
		gate:   gate,
		logger: logger,
		queue:  make(chan Cue, queueSize),
	}
	go_func_utils.SafeGoWG(logger, &p.wg, p.run)
	return p
}

func (p *GatedPlayer) Play(cue Cue) {
	if !p.gate(cue) {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- cue:
	default:
		p.logger.Printf("GatedPlayer: queue full, dropping %s", cue)
	}
}

// Close drains queued cues and stops the worker
func (p *GatedPlayer) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *GatedPlayer) run() {
	for cue := range p.queue {
		for _, sink := range p.sinks {
			p.playOn(sink, cue)
		}
	}
}

func (p *GatedPlayer) playOn(sink Sink, cue Cue) {
	go_func_utils.Recover(p.logger, fmt.Sprintf("GatedPlayer: %s", cue), func() {
		if err := sink.Play(cue); err != nil {
			p.logger.Printf("GatedPlayer: failed to play %s: %v", cue, err)
		}
	})
}

// Beeper is satisfied by tcell.Screen
type Beeper interface {
	Beep() error
}

// BellSink renders cues as terminal bells, a distinct count per cue
type BellSink struct {
	beeper Beeper
	gap    time.Duration
}

var bellCounts = map[Cue]int{
	CueCountdown:    1,
	CueHoldComplete: 2,
	CueRestWarning:  1,
	CueRestComplete: 3,
	CueSetComplete:  2,
}

func NewBellSink(beeper Beeper, gap time.Duration) *BellSink {
	if beeper == nil {
		panic("BellSink: beeper cannot be nil")
	}
	return &BellSink{beeper: beeper, gap: gap}
}

func (s *BellSink) Play(cue Cue) error {
	n, ok := bellCounts[cue]
	if !ok {
		return fmt.Errorf("unknown cue %q", cue)
	}
	for i := 0; i < n; i++ {
		if i > 0 && s.gap > 0 {
			time.Sleep(s.gap)
		}
		if err := s.beeper.Beep(); err != nil {
			return err
		}
	}
	return nil
}

// LogSink writes one log line per cue
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		panic("LogSink: logger cannot be nil")
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Play(cue Cue) error {
	s.logger.Printf("Audio: cue %s", cue)
	return nil
}
