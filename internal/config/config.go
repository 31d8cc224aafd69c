package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/iohe/sensirion-hdlc/hdlc"
	"github.com/iohe/sensirion-hdlc/internal/serial"
)

// Config holds the CLI runtime settings.
type Config struct {
	Port         string
	BaudRate     int
	ReadTimeout  time.Duration
	ReplyTimeout time.Duration
	MaxFrameSize int
	Log          LogConfig
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level     string
	NoColor   bool
	Timestamp bool
}

// config.toml key mapping; durations are Go duration strings.
type fileConfig struct {
	Port         string `toml:"port"`
	BaudRate     int    `toml:"baud_rate"`
	ReadTimeout  string `toml:"read_timeout"`
	ReplyTimeout string `toml:"reply_timeout"`
	MaxFrameSize int    `toml:"max_frame_size"`
	Log          struct {
		Level     string `toml:"level"`
		NoColor   bool   `toml:"no_color"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`
}

// Default returns the settings used when no config file is given.
func Default() Config {
	return Config{
		BaudRate:     serial.DefaultBaudRate,
		ReadTimeout:  serial.DefaultReadTimeout,
		ReplyTimeout: time.Second,
		MaxFrameSize: hdlc.DefaultMaxFrameSize,
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
	}
}

// Load reads a TOML file and overlays the keys it defines on Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud_rate") {
		cfg.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("read_timeout") {
		d, err := parseDuration("read_timeout", raw.ReadTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("reply_timeout") {
		d, err := parseDuration("reply_timeout", raw.ReplyTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.ReplyTimeout = d
	}
	if meta.IsDefined("max_frame_size") {
		cfg.MaxFrameSize = raw.MaxFrameSize
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid config: baud_rate must be positive, got %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("invalid config: read_timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.ReplyTimeout <= 0 {
		return fmt.Errorf("invalid config: reply_timeout must be positive, got %s", c.ReplyTimeout)
	}
	if c.MaxFrameSize < 2 {
		return fmt.Errorf("invalid config: max_frame_size must be at least 2, got %d", c.MaxFrameSize)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s: %w", key, err)
	}
	return d, nil
}
