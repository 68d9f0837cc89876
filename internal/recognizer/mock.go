package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

var ErrNotListening = errors.New("mock recognizer is not listening")

// Utterance records a transcript injected into the mock
type Utterance struct {
	Timestamp  time.Time `json:"timestamp"`
	Transcript string    `json:"transcript"`
	Confidence float64   `json:"confidence"`
	IsFinal    bool      `json:"isFinal"`
}

// MockRecognizerState is the mock's state for the web API
type MockRecognizerState struct {
	Listening        bool        `json:"listening"`
	Sessions         int         `json:"sessions"`
	PermissionDenied bool        `json:"permissionDenied"`
	Heard            []Utterance `json:"heard"`
}

// MockRecognizerConfig holds configuration for creating a mock recognizer
type MockRecognizerConfig struct {
	// ServerPort is where the control page listens; zero disables it
	ServerPort     int
	DenyPermission bool
}

// MockRecognizer is a voice.Recognizer driven by hand, either from tests or from
// a small web page, so voice control can be exercised without a microphone.
type MockRecognizer struct {
	logger *log.Logger
	config MockRecognizerConfig

	mu        sync.RWMutex
	events    voice.RecognizerEvents
	listening bool
	sessions  int
	denied    bool
	heard     []Utterance

	server *http.Server
	wg     sync.WaitGroup
}

var _ voice.Recognizer = (*MockRecognizer)(nil)

func NewMockRecognizer(logger *log.Logger, config MockRecognizerConfig) *MockRecognizer {
	if logger == nil {
		panic("MockRecognizer: logger cannot be nil")
	}
	return &MockRecognizer{
		logger: logger,
		config: config,
		denied: config.DenyPermission,
		heard:  make([]Utterance, 0),
	}
}

func (m *MockRecognizer) Supported() bool {
	return true
}

func (m *MockRecognizer) Start(events voice.RecognizerEvents) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied {
		return voice.ErrPermissionDenied
	}
	if m.listening {
		return voice.ErrAlreadyStarted
	}
	m.events = events
	m.listening = true
	m.sessions++
	m.logger.Printf("MockRecognizer: listening (session %d)", m.sessions)
	return nil
}

// Stop ends the session and reports OnEnd, as a real engine does
func (m *MockRecognizer) Stop() error {
	m.end("stopped")
	return nil
}

// End simulates the engine ending a session on its own
func (m *MockRecognizer) End() {
	m.end("ended")
}

func (m *MockRecognizer) end(reason string) {
	m.mu.Lock()
	if !m.listening {
		m.mu.Unlock()
		return
	}
	m.listening = false
	onEnd := m.events.OnEnd
	m.mu.Unlock()

	m.logger.Printf("MockRecognizer: %s", reason)
	// External call after releasing lock
	if onEnd != nil {
		onEnd()
	}
}

// Say delivers a transcript to the active session
func (m *MockRecognizer) Say(transcript string, confidence float64, final bool) error {
	m.mu.Lock()
	if !m.listening {
		m.mu.Unlock()
		return ErrNotListening
	}
	u := Utterance{Timestamp: time.Now(), Transcript: transcript, Confidence: confidence, IsFinal: final}
	m.heard = append(m.heard, u)
	onResult := m.events.OnResult
	m.mu.Unlock()

	if onResult != nil {
		onResult(voice.Result{Transcript: transcript, IsFinal: final, Confidence: confidence})
	}
	return nil
}

// Fail delivers a recognition error to the active session
func (m *MockRecognizer) Fail(code voice.ErrorCode, message string) error {
	m.mu.RLock()
	listening := m.listening
	onError := m.events.OnError
	m.mu.RUnlock()
	if !listening {
		return ErrNotListening
	}
	if onError != nil {
		onError(voice.RecognitionError{Code: code, Message: message})
	}
	return nil
}

// Level delivers a microphone level in [0,1]
func (m *MockRecognizer) Level(level float64) error {
	m.mu.RLock()
	listening := m.listening
	onLevel := m.events.OnAudioLevel
	m.mu.RUnlock()
	if !listening {
		return ErrNotListening
	}
	if onLevel != nil {
		onLevel(level)
	}
	return nil
}

// SetPermissionDenied makes later Start calls fail with voice.ErrPermissionDenied
func (m *MockRecognizer) SetPermissionDenied(denied bool) {
	m.mu.Lock()
	m.denied = denied
	m.mu.Unlock()
}

func (m *MockRecognizer) State() MockRecognizerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	heard := make([]Utterance, len(m.heard))
	copy(heard, m.heard)
	return MockRecognizerState{
		Listening:        m.listening,
		Sessions:         m.sessions,
		PermissionDenied: m.denied,
		Heard:            heard,
	}
}

// Handler serves the control page and its API
func (m *MockRecognizer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleIndex)
	mux.HandleFunc("/api/state", m.handleGetState)
	mux.HandleFunc("/api/say", m.handleSay)
	mux.HandleFunc("/api/error", m.handleError)
	mux.HandleFunc("/api/end", m.handleEnd)
	mux.HandleFunc("/api/level", m.handleLevel)
	mux.HandleFunc("/api/permission", m.handlePermission)
	return mux
}

// StartServer starts the control page when a port is configured
func (m *MockRecognizer) StartServer() {
	if m.config.ServerPort == 0 {
		return
	}
	m.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", m.config.ServerPort),
		Handler: m.Handler(),
	}
	go_func_utils.SafeGoWG(m.logger, &m.wg, func() {
		m.logger.Printf("MockRecognizer: control page on http://localhost:%d", m.config.ServerPort)
		if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
			m.logger.Printf("MockRecognizer: web server error: %v", err)
		}
	})
}

// Shutdown stops the session and the control page
func (m *MockRecognizer) Shutdown() {
	m.logger.Println("MockRecognizer: shutting down")
	m.Stop()
	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			m.logger.Printf("MockRecognizer: error shutting down web server: %v", err)
		}
	}
	m.wg.Wait()
}

func (m *MockRecognizer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

func (m *MockRecognizer) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.State())
}

func (m *MockRecognizer) handleSay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	text := q.Get("text")
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	confidence := 0.95
	if c := q.Get("confidence"); c != "" {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			http.Error(w, "invalid confidence", http.StatusBadRequest)
			return
		}
		confidence = v
	}
	final := q.Get("interim") != "true"

	m.respond(w, m.Say(text, confidence, final))
}

func (m *MockRecognizer) handleError(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code := voice.ErrorCode(r.URL.Query().Get("code"))
	if code == "" {
		code = voice.ErrorNoSpeech
	}
	m.respond(w, m.Fail(code, r.URL.Query().Get("message")))
}

func (m *MockRecognizer) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.End()
	w.WriteHeader(http.StatusOK)
}

func (m *MockRecognizer) handleLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil || v < 0 || v > 1 {
		http.Error(w, "value must be between 0 and 1", http.StatusBadRequest)
		return
	}
	m.respond(w, m.Level(v))
}

func (m *MockRecognizer) handlePermission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.SetPermissionDenied(r.URL.Query().Get("deny") == "true")
	w.WriteHeader(http.StatusOK)
}

func (m *MockRecognizer) respond(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotListening) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Mock Voice Control</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px; }
        .section { margin: 20px 0; padding: 15px; border: 1px solid #ccc; border-radius: 5px; }
        button { padding: 10px 20px; margin: 5px; cursor: pointer; }
        #heard { font-family: monospace; font-size: 12px; max-height: 300px; overflow-y: auto; }
    </style>
</head>
<body>
    <h1>Mock Voice Control</h1>
    <div class="section">
        <div id="status">...</div>
        <input id="text" placeholder="say something" autofocus>
        <input id="confidence" type="number" step="0.05" min="0" max="1" value="0.95">
        <button onclick="say(false)">Say</button>
        <button onclick="say(true)">Interim</button>
    </div>
    <div class="section">
        <button onclick="post('/api/say?text=done')">done</button>
        <button onclick="post('/api/say?text=undo')">undo</button>
        <button onclick="post('/api/say?text=ready')">ready</button>
        <button onclick="post('/api/say?text=stop')">stop</button>
        <button onclick="post('/api/say?text=skip')">skip</button>
        <button onclick="post('/api/say?text=more+time')">more time</button>
    </div>
    <div class="section">
        <button onclick="post('/api/error?code=no-speech')">no-speech</button>
        <button onclick="post('/api/error?code=not-allowed')">not-allowed</button>
        <button onclick="post('/api/end')">end session</button>
    </div>
    <div class="section"><div id="heard"></div></div>
    <script>
        function post(url) {
            fetch(url, { method: 'POST' }).then(refresh);
        }
        function say(interim) {
            const text = encodeURIComponent(document.getElementById('text').value);
            const conf = document.getElementById('confidence').value;
            post('/api/say?text=' + text + '&confidence=' + conf + (interim ? '&interim=true' : ''));
        }
        function refresh() {
            fetch('/api/state').then(r => r.json()).then(s => {
                document.getElementById('status').textContent =
                    (s.listening ? 'listening' : 'idle') + ', sessions: ' + s.sessions +
                    (s.permissionDenied ? ', permission denied' : '');
                document.getElementById('heard').innerHTML = s.heard.map(u =>
                    '<div>' + new Date(u.timestamp).toLocaleTimeString() + ' ' +
                    (u.isFinal ? '' : '(interim) ') + u.transcript + ' @' + u.confidence + '</div>'
                ).reverse().join('') || 'Nothing heard yet';
            });
        }
        refresh();
        setInterval(refresh, 2000);
    </script>
</body>
</html>`
