// Package recognizer provides transcript sources for the voice dispatcher: a
// client for a local speech daemon speaking NDJSON over a Unix socket, an HTTP
// driven mock, and a stand-in for machines without speech support.
package recognizer

// Command is sent from the client to the speech daemon
type Command struct {
	Cmd    string   `json:"cmd"`
	Locale string   `json:"locale,omitempty"`
	Events []string `json:"events,omitempty"`
}

// Response answers a Command
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Event is streamed to subscribed clients
type Event struct {
	Event      string   `json:"event"`
	Text       string   `json:"text,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Mic        *float64 `json:"mic,omitempty"`
	Code       string   `json:"code,omitempty"`
	Message    string   `json:"message,omitempty"`
	Transient  *bool    `json:"transient,omitempty"`
}

const (
	EventPartial = "partial"
	EventSegment = "segment"
	EventLevel   = "level"
	EventError   = "error"
)

var subscribedEvents = []string{EventPartial, EventSegment, EventLevel, EventError}
