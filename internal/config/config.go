// Package config resolves the app configuration from flags, an optional YAML
// file and CALISTHENICS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	RecognizerNone   = "none"
	RecognizerSocket = "socket"
	RecognizerMock   = "mock"
)

type Config struct {
	DataDir string      `mapstructure:"data_dir"`
	Log     LogConfig   `mapstructure:"log"`
	Voice   VoiceConfig `mapstructure:"voice"`
	Rest    RestConfig  `mapstructure:"rest"`
	Hold    HoldConfig  `mapstructure:"hold"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type VoiceConfig struct {
	Recognizer string `mapstructure:"recognizer"`
	Socket     string `mapstructure:"socket"`
	Locale     string `mapstructure:"locale"`
	MockPort   int    `mapstructure:"mock_port"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type RestConfig struct {
	ExtendSeconds int `mapstructure:"extend_seconds"`
}

type HoldConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	QuickTap time.Duration `mapstructure:"quick_tap"`
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".calisthenics-coach")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("voice.recognizer", RecognizerNone)
	v.SetDefault("voice.socket", "")
	v.SetDefault("voice.locale", "en-US")
	v.SetDefault("voice.mock_port", 8765)
	v.SetDefault("voice.handshake_timeout", 2*time.Second)
	v.SetDefault("rest.extend_seconds", 30)
	v.SetDefault("hold.duration", 2*time.Second)
	v.SetDefault("hold.quick_tap", 300*time.Millisecond)
}

// NewFlagSet declares the command line flags
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file (default <data-dir>/config.yaml)")
	fs.String("data-dir", defaultDataDir(), "directory for settings, history and logs")
	fs.String("log-file", "", "log file (default <data-dir>/calisthenics-coach.log)")
	fs.String("voice", RecognizerNone, "transcript source: none, socket or mock")
	fs.String("voice-socket", "", "speech daemon socket for --voice=socket")
	fs.Int("mock-port", 8765, "control page port for --voice=mock")
	fs.Int("rest-extend", 30, "seconds added when extending a rest")
	return fs
}

var flagKeys = map[string]string{
	"data-dir":     "data_dir",
	"log-file":     "log.file",
	"voice":        "voice.recognizer",
	"voice-socket": "voice.socket",
	"mock-port":    "voice.mock_port",
	"rest-extend":  "rest.extend_seconds",
}

// Load parses args and resolves the configuration. pflag.ErrHelp is returned
// as is when help was requested.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("calisthenics-coach")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(fs)
}

// FromFlags resolves the configuration for an already parsed flag set
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}

	v.SetEnvPrefix("CALISTHENICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "calisthenics-coach.log")
	}
	if cfg.Voice.Socket == "" {
		cfg.Voice.Socket = filepath.Join(cfg.DataDir, "speech.sock")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Voice.Recognizer {
	case RecognizerNone, RecognizerSocket, RecognizerMock:
	default:
		return fmt.Errorf("voice.recognizer must be none, socket or mock, got %q", c.Voice.Recognizer)
	}
	if c.Voice.Recognizer == RecognizerMock && (c.Voice.MockPort < 0 || c.Voice.MockPort > 65535) {
		return fmt.Errorf("voice.mock_port out of range: %d", c.Voice.MockPort)
	}
	if c.Rest.ExtendSeconds <= 0 {
		return fmt.Errorf("rest.extend_seconds must be positive")
	}
	if c.Hold.Duration <= 0 {
		return fmt.Errorf("hold.duration must be positive")
	}
	if c.Hold.QuickTap < 0 || c.Hold.QuickTap >= c.Hold.Duration {
		return fmt.Errorf("hold.quick_tap must be shorter than hold.duration")
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive")
	}
	return nil
}
