package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_FileAndLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})

	l.Logger.Println("Trainer: started")
	l.Logger.Printf("Dispatcher: %s\nsecond line", "first line")

	assert.Contains(t, <-l.Lines(), "Trainer: started")
	assert.Contains(t, <-l.Lines(), "Dispatcher: first line")
	assert.Equal(t, "second line", <-l.Lines())

	require.NoError(t, l.Close())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(raw), "\n"))
	assert.Contains(t, string(raw), "Trainer: started")

	_, open := <-l.Lines()
	assert.False(t, open)
}

type nopCloser struct{ strings.Builder }

func (*nopCloser) Close() error { return nil }

func TestLogging_FullChannelDrops(t *testing.T) {
	sink := &nopCloser{}
	l := newWithWriter(sink)
	for i := 0; i < LineBuffer+10; i++ {
		l.Logger.Println("line")
	}
	assert.Len(t, l.lines, LineBuffer)
	assert.Equal(t, LineBuffer+10, strings.Count(sink.String(), "\n"))

	require.NoError(t, l.Close())
	l.Logger.Println("after close")
	assert.Equal(t, LineBuffer+11, strings.Count(sink.String(), "\n"))
}
