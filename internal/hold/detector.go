// Package hold detects press-and-hold gestures from pointer and keyboard input
// and tells a quick tap apart from a sustained hold.
package hold

import (
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/timing"
)

const (
	DefaultHoldDuration      = 2 * time.Second
	DefaultQuickTapThreshold = 300 * time.Millisecond

	// FrameInterval is how often progress is recomputed while a hold is in flight
	FrameInterval = 16 * time.Millisecond
)

// Key identifies a keyboard key. Only Enter and Space start holds.
type Key string

const (
	KeyEnter Key = "Enter"
	KeySpace Key = " "
)

func (k Key) startsHold() bool {
	return k == KeyEnter || k == KeySpace
}

// Callbacks are the gesture outcomes. Any of them may be nil.
type Callbacks struct {
	OnHoldComplete func()
	OnHoldStart    func()
	OnHoldCancel   func()
	OnQuickTap     func()
	OnProgress     func(progress float64)
}

// Options configures a Detector. Zero durations take the defaults.
type Options struct {
	HoldDuration      time.Duration
	QuickTapThreshold time.Duration
	Callbacks
}

// State is what a view needs to render the hold affordance
type State struct {
	IsHolding bool
	Progress  float64
}

type inputSource int

const (
	sourceNone inputSource = iota
	sourcePointer
	sourceKey
)

// Detector tracks one hold at a time. Exactly one of OnHoldComplete,
// OnHoldCancel or OnQuickTap ends every hold that OnHoldStart began, except when
// the detector is closed mid-hold.
type Detector struct {
	scheduler         timing.Scheduler
	holdDuration      time.Duration
	quickTapThreshold time.Duration

	mu        sync.Mutex
	state     State
	startedAt time.Time
	source    inputSource
	key       Key
	holdID    uint64
	stopLoop  func()
	callbacks Callbacks
	closed    bool
}

// NewDetector creates a Detector that measures time on scheduler
func NewDetector(scheduler timing.Scheduler, opts Options) *Detector {
	if scheduler == nil {
		panic("Detector: scheduler cannot be nil")
	}
	if opts.HoldDuration <= 0 {
		opts.HoldDuration = DefaultHoldDuration
	}
	if opts.QuickTapThreshold <= 0 {
		opts.QuickTapThreshold = DefaultQuickTapThreshold
	}
	return &Detector{
		scheduler:         scheduler,
		holdDuration:      opts.HoldDuration,
		quickTapThreshold: opts.QuickTapThreshold,
		callbacks:         opts.Callbacks,
	}
}

// SetCallbacks replaces the gesture callbacks, including for a hold in flight.
func (d *Detector) SetCallbacks(callbacks Callbacks) {
	d.mu.Lock()
	d.callbacks = callbacks
	d.mu.Unlock()
}

// State returns a snapshot
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) IsHolding() bool {
	return d.State().IsHolding
}

func (d *Detector) Progress() float64 {
	return d.State().Progress
}

func (d *Detector) PointerDown() {
	d.begin(sourcePointer, "")
}

func (d *Detector) PointerUp() {
	d.end(sourcePointer, "", true)
}

func (d *Detector) PointerLeave() {
	d.end(sourcePointer, "", false)
}

func (d *Detector) PointerCancel() {
	d.end(sourcePointer, "", false)
}

// KeyDown starts a hold for Enter or Space. Auto-repeat of a held key is ignored.
func (d *Detector) KeyDown(key Key) {
	if !key.startsHold() {
		return
	}
	d.begin(sourceKey, key)
}

// KeyUp releases the hold only when key is the one that started it.
func (d *Detector) KeyUp(key Key) {
	d.end(sourceKey, key, true)
}

// Blur cancels whatever hold is in flight; losing focus is never a tap.
func (d *Detector) Blur() {
	d.mu.Lock()
	source, key := d.source, d.key
	d.mu.Unlock()
	d.end(source, key, false)
}

// Close stops the progress loop without firing any callback and ignores all
// further input.
func (d *Detector) Close() {
	d.mu.Lock()
	d.closed = true
	stop := d.resetLocked()
	d.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (d *Detector) begin(source inputSource, key Key) {
	d.mu.Lock()
	if d.closed || d.state.IsHolding {
		d.mu.Unlock()
		return
	}
	d.holdID++
	id := d.holdID
	d.state = State{IsHolding: true}
	d.startedAt = d.scheduler.Now()
	d.source = source
	d.key = key
	d.stopLoop = d.scheduler.Every(FrameInterval, func() { d.update(id) })
	onStart := d.callbacks.OnHoldStart
	d.mu.Unlock()

	if onStart != nil {
		onStart()
	}
}

func (d *Detector) end(source inputSource, key Key, allowQuickTap bool) {
	d.mu.Lock()
	if !d.state.IsHolding || d.source != source || d.key != key {
		d.mu.Unlock()
		return
	}
	elapsed := d.scheduler.Now().Sub(d.startedAt)
	stop := d.resetLocked()
	callback := d.callbacks.OnHoldCancel
	if allowQuickTap && elapsed < d.quickTapThreshold {
		callback = d.callbacks.OnQuickTap
	}
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if callback != nil {
		callback()
	}
}

func (d *Detector) update(id uint64) {
	d.mu.Lock()
	if !d.state.IsHolding || id != d.holdID {
		d.mu.Unlock()
		return
	}
	elapsed := d.scheduler.Now().Sub(d.startedAt)
	progress := float64(elapsed) / float64(d.holdDuration)
	if progress < 1 {
		d.state.Progress = progress
		onProgress := d.callbacks.OnProgress
		d.mu.Unlock()
		if onProgress != nil {
			onProgress(progress)
		}
		return
	}

	stop := d.resetLocked()
	onComplete := d.callbacks.OnHoldComplete
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if onComplete != nil {
		onComplete()
	}
}

// resetLocked returns the detector to idle and hands back the loop cancel so the
// caller can run it after unlocking.
func (d *Detector) resetLocked() func() {
	stop := d.stopLoop
	d.stopLoop = nil
	d.state = State{}
	d.source = sourceNone
	d.key = ""
	return stop
}
