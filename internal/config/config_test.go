package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{"--data-dir", dir})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "calisthenics-coach.log"), cfg.Log.File)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
	assert.Equal(t, RecognizerNone, cfg.Voice.Recognizer)
	assert.Equal(t, filepath.Join(dir, "speech.sock"), cfg.Voice.Socket)
	assert.Equal(t, 2*time.Second, cfg.Voice.HandshakeTimeout)
	assert.Equal(t, 30, cfg.Rest.ExtendSeconds)
	assert.Equal(t, 2*time.Second, cfg.Hold.Duration)
	assert.Equal(t, 300*time.Millisecond, cfg.Hold.QuickTap)
}

func TestLoad_ConfigFileInDataDir(t *testing.T) {
	dir := t.TempDir()
	yaml := "voice:\n  recognizer: mock\n  mock_port: 9000\nrest:\n  extend_seconds: 15\nhold:\n  duration: 3s\n  quick_tap: 250ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load([]string{"--data-dir", dir})
	require.NoError(t, err)
	assert.Equal(t, RecognizerMock, cfg.Voice.Recognizer)
	assert.Equal(t, 9000, cfg.Voice.MockPort)
	assert.Equal(t, 15, cfg.Rest.ExtendSeconds)
	assert.Equal(t, 3*time.Second, cfg.Hold.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Hold.QuickTap)
}

func TestLoad_FlagsBeatFileAndEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("voice:\n  recognizer: mock\nrest:\n  extend_seconds: 15\n"), 0644))
	t.Setenv("CALISTHENICS_REST_EXTEND_SECONDS", "45")

	cfg, err := Load([]string{"--data-dir", dir, "--config", file, "--voice", "socket"})
	require.NoError(t, err)
	assert.Equal(t, RecognizerSocket, cfg.Voice.Recognizer)
	assert.Equal(t, 45, cfg.Rest.ExtendSeconds)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load([]string{"--data-dir", dir, "--voice", "telepathy"})
	assert.ErrorContains(t, err, "voice.recognizer")

	_, err = Load([]string{"--data-dir", dir, "--rest-extend", "0"})
	assert.ErrorContains(t, err, "rest.extend_seconds")

	_, err = Load([]string{"--data-dir", dir, "--config", filepath.Join(dir, "missing.yaml")})
	assert.ErrorContains(t, err, "reading config file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("hold:\n  quick_tap: 5s\n"), 0644))
	_, err = Load([]string{"--data-dir", dir})
	assert.ErrorContains(t, err, "hold.quick_tap")
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}
