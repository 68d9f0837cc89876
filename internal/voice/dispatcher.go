package voice

import (
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/lowaak/calisthenics-coach/internal/events"
)

// MinConfidence is the lowest recognizer confidence that may dispatch
const MinConfidence = 0.5

// Handlers are the per-screen command callbacks. Nil handlers are skipped.
type Handlers struct {
	OnNumber func(value int)
	OnDone   func()
	OnUndo   func()
	OnReady  func()
	OnStop   func()
	OnSkip   func()
	OnExtend func()
}

type PermissionState string

const (
	PermissionUnknown PermissionState = "unknown"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

type MicState string

const (
	MicIdle      MicState = "idle"
	MicListening MicState = "listening"
	MicError     MicState = "error"
)

// Status is the runtime (non-persisted) voice state shown to the user
type Status struct {
	Supported      bool
	Permission     PermissionState
	Mic            MicState
	AudioLevel     float64
	LastTranscript string
	Context        Context
	LastCommand    *ParsedCommand
}

// Dispatcher owns the recognizer lifecycle and routes final transcripts to the
// handlers registered for the current context.
type Dispatcher struct {
	recognizer Recognizer
	prefs      *Preferences
	logger     *log.Logger

	mu               sync.Mutex
	ctx              Context
	enabled          bool
	handlers         Handlers
	visible          bool
	resumeOnShow     bool
	running          bool
	session          uint64
	lastProcessed    string
	status           Status
	closed           bool
	unsubscribePrefs func()

	statusEvent *events.CallbackEvent[Status]
}

// NewDispatcher creates a dispatcher. The recognizer stays off until Configure
// enables it.
func NewDispatcher(recognizer Recognizer, prefs *Preferences, logger *log.Logger) *Dispatcher {
	if recognizer == nil {
		panic("Dispatcher: recognizer cannot be nil")
	}
	if prefs == nil {
		panic("Dispatcher: preferences cannot be nil")
	}
	if logger == nil {
		panic("Dispatcher: logger cannot be nil")
	}

	d := &Dispatcher{
		recognizer: recognizer,
		prefs:      prefs,
		logger:     logger,
		visible:    true,
		status: Status{
			Supported:  recognizer.Supported(),
			Permission: PermissionUnknown,
			Mic:        MicIdle,
		},
		statusEvent: events.NewCallbackEvent[Status](true),
	}
	d.statusEvent.Notify(d.status)
	d.unsubscribePrefs = prefs.Listen(d.onPreferencesChanged)
	return d
}

// Configure sets the active context, the caller's enabled flag and handlers.
// Switching context forgets the last processed transcript so a repeated command
// is accepted on the new screen.
func (d *Dispatcher) Configure(ctx Context, enabled bool, handlers Handlers) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if ctx != d.ctx {
		d.lastProcessed = ""
	}
	d.ctx = ctx
	d.enabled = enabled
	d.handlers = handlers
	d.status.Context = ctx
	status := d.status
	d.mu.Unlock()

	d.statusEvent.Notify(status)
	d.reconcile()
}

// SetVisible stops recognition while the workout screen is hidden. On return it
// resumes only if it was running when hidden; otherwise it waits for the next
// Configure or preferences change.
func (d *Dispatcher) SetVisible(visible bool) {
	d.mu.Lock()
	if d.visible == visible || d.closed {
		d.mu.Unlock()
		return
	}
	d.visible = visible
	if !visible {
		d.resumeOnShow = d.running
	}
	resume := visible && d.resumeOnShow
	if visible {
		d.resumeOnShow = false
	}
	d.mu.Unlock()

	if visible && !resume {
		return
	}
	if resume {
		d.logger.Println("Dispatcher: resuming recognition")
	}
	d.reconcile()
}

// Status returns the current runtime status
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// ListenStatus registers fn for status changes. The current status is replayed.
func (d *Dispatcher) ListenStatus(fn func(Status)) func() {
	return d.statusEvent.Listen(fn)
}

// Close stops the recognizer and detaches from preferences
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	wasRunning := d.running
	d.running = false
	d.session++
	unsubscribe := d.unsubscribePrefs
	d.mu.Unlock()

	unsubscribe()
	if wasRunning {
		if err := d.recognizer.Stop(); err != nil {
			d.logger.Printf("Dispatcher: failed to stop recognizer: %v", err)
		}
	}
}

// shouldRunLocked requires d.mu
func (d *Dispatcher) shouldRunLocked() bool {
	return !d.closed &&
		d.enabled &&
		d.prefs.Get().Enabled &&
		d.status.Supported &&
		d.visible &&
		d.status.Permission != PermissionDenied
}

func (d *Dispatcher) reconcile() {
	d.mu.Lock()
	want := d.shouldRunLocked()
	switch {
	case want && !d.running:
		d.running = true
		d.session++
		session := d.session
		d.mu.Unlock()
		d.start(session)
	case !want && d.running:
		d.running = false
		d.session++
		d.status.Mic = MicIdle
		d.status.AudioLevel = 0
		status := d.status
		d.mu.Unlock()

		// External call after releasing lock
		if err := d.recognizer.Stop(); err != nil {
			d.logger.Printf("Dispatcher: failed to stop recognizer: %v", err)
		}
		d.statusEvent.Notify(status)
	default:
		d.mu.Unlock()
	}
}

func (d *Dispatcher) start(session uint64) {
	err := d.recognizer.Start(RecognizerEvents{
		OnResult:     func(r Result) { d.onResult(session, r) },
		OnError:      func(e RecognitionError) { d.onError(session, e) },
		OnEnd:        func() { d.onEnd(session) },
		OnAudioLevel: func(level float64) { d.onAudioLevel(session, level) },
	})

	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		d.status.Mic = MicListening
		if d.status.Permission == PermissionUnknown {
			d.status.Permission = PermissionGranted
		}
	case errors.Is(err, ErrPermissionDenied):
		d.running = false
		d.status.Permission = PermissionDenied
		d.status.Mic = MicError
	case errors.Is(err, ErrAlreadyStarted):
		d.status.Mic = MicListening
	default:
		d.running = false
		d.status.Mic = MicError
	}
	status := d.status
	d.mu.Unlock()

	if err != nil {
		d.logger.Printf("Dispatcher: failed to start recognizer: %v", err)
	}
	d.statusEvent.Notify(status)
}

func (d *Dispatcher) onResult(session uint64, r Result) {
	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	d.status.LastTranscript = r.Transcript
	if !r.IsFinal {
		status := d.status
		d.mu.Unlock()
		d.statusEvent.Notify(status)
		return
	}
	if r.Confidence < MinConfidence {
		status := d.status
		d.mu.Unlock()
		d.statusEvent.Notify(status)
		return
	}

	transcript := strings.TrimSpace(r.Transcript)
	if transcript == d.lastProcessed {
		d.mu.Unlock()
		return
	}
	cmd := ParseTranscript(transcript, d.ctx)
	if cmd == nil {
		status := d.status
		d.mu.Unlock()
		d.statusEvent.Notify(status)
		return
	}
	d.lastProcessed = transcript
	d.status.LastCommand = cmd
	handlers := d.handlers
	status := d.status
	d.mu.Unlock()

	d.statusEvent.Notify(status)
	dispatch(handlers, cmd)
}

func dispatch(h Handlers, cmd *ParsedCommand) {
	switch cmd.Type {
	case CommandNumber:
		if h.OnNumber != nil {
			h.OnNumber(cmd.Value)
		}
	case CommandDone:
		call(h.OnDone)
	case CommandUndo:
		call(h.OnUndo)
	case CommandReady:
		call(h.OnReady)
	case CommandStop:
		call(h.OnStop)
	case CommandSkip:
		call(h.OnSkip)
	case CommandExtend:
		call(h.OnExtend)
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (d *Dispatcher) onError(session uint64, e RecognitionError) {
	if e.Code.Benign() {
		d.logger.Printf("Dispatcher: recognizer: %v", e)
		return
	}

	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	d.status.Mic = MicError
	stop := false
	if e.Code == ErrorNotAllowed {
		d.status.Permission = PermissionDenied
		stop = d.running
		d.running = false
		d.session++
	}
	status := d.status
	d.mu.Unlock()

	d.logger.Printf("Dispatcher: recognizer error: %v", e)
	if stop {
		if err := d.recognizer.Stop(); err != nil {
			d.logger.Printf("Dispatcher: failed to stop recognizer: %v", err)
		}
	}
	d.statusEvent.Notify(status)
}

// onEnd restarts the recognizer when a session ends on its own while voice
// should still be running.
func (d *Dispatcher) onEnd(session uint64) {
	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	if d.running && d.shouldRunLocked() {
		d.session++
		next := d.session
		d.mu.Unlock()
		d.logger.Println("Dispatcher: recognizer ended unexpectedly, restarting")
		d.start(next)
		return
	}
	d.running = false
	if d.status.Mic == MicListening {
		d.status.Mic = MicIdle
	}
	status := d.status
	d.mu.Unlock()
	d.statusEvent.Notify(status)
}

func (d *Dispatcher) onAudioLevel(session uint64, level float64) {
	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	d.status.AudioLevel = level
	status := d.status
	d.mu.Unlock()
	d.statusEvent.Notify(status)
}

func (d *Dispatcher) onPreferencesChanged(p PreferencesData) {
	d.mu.Lock()
	if p.Enabled && d.status.Permission == PermissionDenied {
		// re-enabling is the user action that retries a denied microphone
		d.status.Permission = PermissionUnknown
		d.status.Mic = MicIdle
	}
	d.mu.Unlock()
	d.reconcile()
}
