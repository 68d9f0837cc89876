package kvstore

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newLogger() (*log.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return log.New(buf, "", 0), buf
}

func TestFallback_FileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	logger, buf := newLogger()

	store := Open(dir, logger)
	store.Save("sample", sample{Name: "pushups", Count: 12})

	// a fresh store reads what the first one wrote
	reopened := Open(dir, logger)
	var got sample
	require.True(t, reopened.Load("sample", &got))
	assert.Equal(t, sample{Name: "pushups", Count: 12}, got)
	assert.False(t, store.Degraded())
	assert.Empty(t, buf.String())

	_, err := os.Stat(filepath.Join(dir, "sample.json"))
	assert.NoError(t, err)
}

func TestFallback_MissingKey(t *testing.T) {
	logger, buf := newLogger()
	store := Open(t.TempDir(), logger)

	got := sample{Name: "default"}
	assert.False(t, store.Load("nothing", &got))
	assert.Equal(t, "default", got.Name)
	assert.Empty(t, buf.String())
}

func TestFallback_ParseFailureLoggedOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), []byte("{not json"), 0644))
	logger, buf := newLogger()
	store := Open(dir, logger)

	var got sample
	assert.False(t, store.Load("sample", &got))
	assert.False(t, store.Load("sample", &got))
	assert.Equal(t, 1, strings.Count(buf.String(), "parse failed"))
	assert.False(t, store.Degraded())
}

func TestFallback_WriteFailureDegradesToMemory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	logger, buf := newLogger()

	// a directory below a regular file can never be created
	store := Open(filepath.Join(blocker, "state"), logger)
	store.Save("sample", sample{Count: 1})
	store.Save("sample", sample{Count: 2})

	assert.True(t, store.Degraded())
	assert.Equal(t, 1, strings.Count(buf.String(), "mkdir failed"))

	var got sample
	require.True(t, store.Load("sample", &got))
	assert.Equal(t, 2, got.Count)
}

func TestFallback_MarshalFailure(t *testing.T) {
	logger, buf := newLogger()
	store := NewMemory(logger)

	store.Save("bad", map[string]any{"ch": make(chan int)})
	store.Save("bad", map[string]any{"ch": make(chan int)})
	assert.Equal(t, 1, strings.Count(buf.String(), "marshal failed"))

	var got map[string]any
	assert.False(t, store.Load("bad", &got))
}

type failingBackend struct {
	readErr, writeErr error
	writes            int
}

func (b *failingBackend) Read(key string) ([]byte, error) {
	return nil, b.readErr
}

func (b *failingBackend) Write(key string, raw []byte) error {
	b.writes++
	return b.writeErr
}

func TestFallback_ReadFailure(t *testing.T) {
	logger, buf := newLogger()
	backend := &failingBackend{
		readErr:  &OpError{Class: FailureRead, Key: "k", Err: errors.New("io error")},
		writeErr: &OpError{Class: FailureWrite, Key: "k", Err: errors.New("disk full")},
	}
	store := NewFallback(backend, logger)

	var got sample
	assert.False(t, store.Load("k", &got))
	assert.False(t, store.Load("k", &got))
	assert.Equal(t, 1, strings.Count(buf.String(), "read failed"))

	store.Save("k", sample{Count: 3})
	store.Save("k", sample{Count: 4})
	assert.Equal(t, 1, backend.writes)
	assert.Equal(t, 1, strings.Count(buf.String(), "write failed"))

	require.True(t, store.Load("k", &got))
	assert.Equal(t, 4, got.Count)
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	b := NewMemoryBackend()
	raw := []byte(`{"count":1}`)
	require.NoError(t, b.Write("k", raw))
	raw[0] = 'x'

	got, err := b.Read("k")
	require.NoError(t, err)
	assert.Equal(t, `{"count":1}`, string(got))

	_, err = b.Read("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewFallback_PanicsOnNilLogger(t *testing.T) {
	assert.PanicsWithValue(t, "Fallback: logger cannot be nil", func() {
		NewFallback(NewMemoryBackend(), nil)
	})
}
