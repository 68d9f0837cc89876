package recognizer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lowaak/calisthenics-coach/internal/go_func_utils"
	"github.com/lowaak/calisthenics-coach/internal/voice"
)

// DefaultHandshakeTimeout bounds connecting and subscribing to the daemon
const DefaultHandshakeTimeout = 2 * time.Second

var errStoppedWhileSubscribing = errors.New("recognizer stopped while subscribing")

// SocketRecognizer subscribes to a speech daemon's transcript stream. Each
// Start opens a new connection; the session ends when the connection does.
type SocketRecognizer struct {
	socketPath string
	locale     string
	logger     *log.Logger

	mu               sync.Mutex
	handshakeTimeout time.Duration
	conn             net.Conn
	starting         bool
	pending          net.Conn // connection still in its handshake
	cancelled        bool
	wg               sync.WaitGroup
}

var _ voice.Recognizer = (*SocketRecognizer)(nil)

func NewSocketRecognizer(logger *log.Logger, socketPath string, locale string) *SocketRecognizer {
	if logger == nil {
		panic("SocketRecognizer: logger cannot be nil")
	}
	return &SocketRecognizer{
		socketPath:       socketPath,
		locale:           locale,
		logger:           logger,
		handshakeTimeout: DefaultHandshakeTimeout,
	}
}

// SetHandshakeTimeout changes the handshake bound. Non-positive values restore
// the default.
func (s *SocketRecognizer) SetHandshakeTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handshakeTimeout = timeout
}

// Supported reports whether the daemon socket exists
func (s *SocketRecognizer) Supported() bool {
	info, err := os.Stat(s.socketPath)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

// Start connects and subscribes. The handshake runs without the lock, gives up
// after the handshake timeout and is aborted by Stop.
func (s *SocketRecognizer) Start(events voice.RecognizerEvents) error {
	s.mu.Lock()
	if s.conn != nil || s.starting {
		s.mu.Unlock()
		return voice.ErrAlreadyStarted
	}
	s.starting = true
	s.cancelled = false
	timeout := s.handshakeTimeout
	s.mu.Unlock()

	conn, scanner, err := s.handshake(timeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	s.pending = nil
	if s.cancelled {
		if conn != nil {
			conn.Close()
		}
		return errStoppedWhileSubscribing
	}
	if err != nil {
		return err
	}

	s.conn = conn
	s.logger.Printf("SocketRecognizer: subscribed on %s", s.socketPath)
	go_func_utils.SafeGoWG(s.logger, &s.wg, func() {
		s.readLoop(conn, scanner, events)
	})
	return nil
}

// handshake dials the daemon and subscribes. On success the connection is
// returned with its deadline cleared.
func (s *SocketRecognizer) handshake(timeout time.Duration) (net.Conn, *bufio.Scanner, error) {
	conn, err := net.DialTimeout("unix", s.socketPath, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to speech daemon: %w", err)
	}

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		conn.Close()
		return nil, nil, errStoppedWhileSubscribing
	}
	s.pending = conn
	s.mu.Unlock()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("set handshake deadline: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	resp, err := subscribe(conn, scanner, Command{Cmd: "subscribe", Locale: s.locale, Events: subscribedEvents})
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if !resp.OK {
		conn.Close()
		if resp.Code == string(voice.ErrorNotAllowed) {
			return nil, nil, fmt.Errorf("%w: %s", voice.ErrPermissionDenied, resp.Error)
		}
		return nil, nil, fmt.Errorf("subscribe rejected: %s", resp.Error)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("clear handshake deadline: %w", err)
	}
	return conn, scanner, nil
}

// Stop closes the connection, aborting a handshake in progress. The reader
// reports OnEnd once it notices. Stop may be called from inside an event
// callback.
func (s *SocketRecognizer) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	pending := s.pending
	s.pending = nil
	if s.starting {
		s.cancelled = true
	}
	s.mu.Unlock()

	if pending != nil {
		pending.Close()
	}
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Close stops the recognizer and waits for its reader to exit
func (s *SocketRecognizer) Close() error {
	err := s.Stop()
	s.wg.Wait()
	return err
}

func subscribe(conn net.Conn, scanner *bufio.Scanner, cmd Command) (Response, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, errors.New("connection closed")
	}
	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

func (s *SocketRecognizer) readLoop(conn net.Conn, scanner *bufio.Scanner, events voice.RecognizerEvents) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			conn.Close()
		}
		s.mu.Unlock()
		if events.OnEnd != nil {
			events.OnEnd()
		}
	}()

	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			s.logger.Printf("SocketRecognizer: skipping malformed event: %v", err)
			continue
		}
		deliver(ev, events)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Printf("SocketRecognizer: read failed: %v", err)
		if events.OnError != nil {
			events.OnError(voice.RecognitionError{Code: voice.ErrorNetwork, Message: err.Error()})
		}
	}
}

func deliver(ev Event, events voice.RecognizerEvents) {
	switch ev.Event {
	case EventPartial, EventSegment:
		if events.OnResult == nil {
			return
		}
		confidence := 1.0
		if ev.Confidence != nil {
			confidence = *ev.Confidence
		}
		events.OnResult(voice.Result{
			Transcript: ev.Text,
			IsFinal:    ev.Event == EventSegment,
			Confidence: confidence,
		})
	case EventLevel:
		if events.OnAudioLevel != nil && ev.Mic != nil {
			events.OnAudioLevel(*ev.Mic)
		}
	case EventError:
		if events.OnError == nil {
			return
		}
		code := voice.ErrorCode(ev.Code)
		if code == "" {
			code = voice.ErrorAudioCapture
			if ev.Transient != nil && *ev.Transient {
				code = voice.ErrorNoSpeech
			}
		}
		events.OnError(voice.RecognitionError{Code: code, Message: ev.Message})
	}
}
