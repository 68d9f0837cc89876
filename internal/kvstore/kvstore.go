// Package kvstore persists small JSON documents by key. Storage failures never
// reach callers: the store degrades to memory and logs each failure class once.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Store is the key-value surface used by settings and preferences
type Store interface {
	// Load decodes the value stored under key into v. It reports false when
	// nothing usable is stored, leaving v untouched.
	Load(key string, v any) bool
	// Save encodes v under key
	Save(key string, v any)
}

// Backend is a raw storage medium
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, raw []byte) error
}

// FailureClass groups storage failures for log-once reporting
type FailureClass string

const (
	FailureRead    FailureClass = "read"
	FailureParse   FailureClass = "parse"
	FailureMkdir   FailureClass = "mkdir"
	FailureMarshal FailureClass = "marshal"
	FailureWrite   FailureClass = "write"
)

var ErrNotFound = errors.New("key not found")

// OpError is a backend failure tagged with its class
type OpError struct {
	Class FailureClass
	Key   string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Class, e.Key, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Fallback writes through an in-memory copy to a primary backend. After the
// first write failure it stops touching the primary and serves memory only.
type Fallback struct {
	primary Backend
	logger  *log.Logger

	mu       sync.Mutex
	memory   map[string][]byte
	degraded bool
	warned   map[FailureClass]bool
}

func NewFallback(primary Backend, logger *log.Logger) *Fallback {
	if primary == nil {
		panic("Fallback: primary backend cannot be nil")
	}
	if logger == nil {
		panic("Fallback: logger cannot be nil")
	}
	return &Fallback{
		primary: primary,
		logger:  logger,
		memory:  make(map[string][]byte),
		warned:  make(map[FailureClass]bool),
	}
}

// Open returns a store backed by JSON files in dir
func Open(dir string, logger *log.Logger) *Fallback {
	return NewFallback(NewFileBackend(dir), logger)
}

// NewMemory returns a store that never touches disk
func NewMemory(logger *log.Logger) *Fallback {
	return NewFallback(NewMemoryBackend(), logger)
}

func (f *Fallback) Load(key string, v any) bool {
	f.mu.Lock()
	raw, cached := f.memory[key]
	degraded := f.degraded
	f.mu.Unlock()

	if !cached {
		if degraded {
			return false
		}
		var err error
		raw, err = f.primary.Read(key)
		if errors.Is(err, ErrNotFound) {
			return false
		}
		if err != nil {
			f.warn(classOf(err, FailureRead), err)
			return false
		}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		f.warn(FailureParse, &OpError{Class: FailureParse, Key: key, Err: err})
		return false
	}
	return true
}

func (f *Fallback) Save(key string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		f.warn(FailureMarshal, &OpError{Class: FailureMarshal, Key: key, Err: err})
		return
	}

	f.mu.Lock()
	f.memory[key] = raw
	degraded := f.degraded
	f.mu.Unlock()

	if degraded {
		return
	}
	if err := f.primary.Write(key, raw); err != nil {
		f.mu.Lock()
		f.degraded = true
		f.mu.Unlock()
		f.warn(classOf(err, FailureWrite), err)
	}
}

// Degraded reports whether the store has fallen back to memory only
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

func (f *Fallback) warn(class FailureClass, err error) {
	f.mu.Lock()
	seen := f.warned[class]
	f.warned[class] = true
	f.mu.Unlock()

	if seen {
		return
	}
	f.logger.Printf("KVStore: %s failed, using in-memory state: %v", class, err)
}

func classOf(err error, def FailureClass) FailureClass {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Class
	}
	return def
}
