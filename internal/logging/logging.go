// Package logging builds the app logger: a rotating log file plus a line feed
// for the in-app log pane.
package logging

import (
	"bytes"
	"io"
	"log"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LineBuffer is the capacity of the UI line channel. Lines are dropped while
// it is full so logging never blocks on the UI.
const LineBuffer = 256

type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type Logging struct {
	Logger *log.Logger
	lines  chan string
	file   io.WriteCloser
	tee    *lineWriter
}

// New opens the rotating file and returns the logger writing to it and the
// UI line channel.
func New(opts Options) *Logging {
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   false,
	}
	return newWithWriter(file)
}

func newWithWriter(file io.WriteCloser) *Logging {
	lines := make(chan string, LineBuffer)
	tee := &lineWriter{lines: lines}
	return &Logging{
		Logger: log.New(io.MultiWriter(file, tee), "", log.LstdFlags|log.Lmicroseconds),
		lines:  lines,
		file:   file,
		tee:    tee,
	}
}

// Lines is the feed consumed by the UI log pane
func (l *Logging) Lines() <-chan string {
	return l.lines
}

// Close stops feeding the UI, closes the line channel and the log file
func (l *Logging) Close() error {
	l.tee.close()
	return l.file.Close()
}

type lineWriter struct {
	mu     sync.Mutex
	lines  chan string
	closed bool
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}

func (w *lineWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
}
