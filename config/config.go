// Package config holds the display's settings. The firmware uses the
// defaults, optionally overridden at link time; the simulator layers a YAML
// file, ENVDISPLAY_* variables and flags on top.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/harveysanders/envdisplay/mqtt"
	"github.com/harveysanders/envdisplay/telemetry"
)

// BrokerAuto asks the simulator to find the broker over mDNS.
const BrokerAuto = "auto"

// Set with -ldflags "-X github.com/harveysanders/envdisplay/config.broker=10.0.0.9:1883".
var (
	broker string
	topic  string
)

// Config is the full set of settings.
type Config struct {
	ClientID      string `yaml:"client_id"`
	Broker        string `yaml:"broker"` // host:port, or BrokerAuto.
	Topic         string `yaml:"topic"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	PayloadFormat string `yaml:"payload_format"`

	RetryInterval  time.Duration `yaml:"retry_interval"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Keepalive      time.Duration `yaml:"keepalive"`
	InboxSize      int           `yaml:"inbox_size"`

	Tick      time.Duration `yaml:"tick"`
	Cooldown  time.Duration `yaml:"cooldown"`
	Hold      time.Duration `yaml:"arrow_hold"`
	Layout    string        `yaml:"layout"`
	Animated  bool          `yaml:"animated"`
	Smoothing float32       `yaml:"smoothing"`
	Backlight uint8         `yaml:"backlight"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the stock settings with any link-time overrides applied.
func Default() Config {
	c := Config{
		ClientID:       "envdisplay",
		Broker:         "10.0.0.9:1883",
		Topic:          "sensors/environment",
		PayloadFormat:  "json",
		RetryInterval:  5 * time.Second,
		ConnectTimeout: 5 * time.Second,
		Keepalive:      30 * time.Second,
		InboxSize:      10,
		Tick:           50 * time.Millisecond,
		Cooldown:       300 * time.Millisecond,
		Hold:           time.Second,
		Layout:         "cards",
		Animated:       true,
		Smoothing:      0.3,
		Backlight:      200,
		LogLevel:       "info",
	}
	if broker != "" {
		c.Broker = broker
	}
	if topic != "" {
		c.Topic = topic
	}
	return c
}

// Validate returns an error naming the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client_id is required")
	}
	if c.Broker != BrokerAuto {
		if _, _, err := mqtt.SplitHostPort(c.Broker); err != nil {
			return errors.New("invalid broker: " + err.Error())
		}
	}
	if c.Topic == "" {
		return errors.New("topic is required")
	}
	if strings.ContainsAny(c.Topic, "#+") {
		return errors.New("topic must not contain wildcards: " + c.Topic)
	}
	if _, err := telemetry.NewDecoder(c.PayloadFormat); err != nil {
		return err
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"retry_interval", c.RetryInterval},
		{"connect_timeout", c.ConnectTimeout},
		{"keepalive", c.Keepalive},
		{"tick", c.Tick},
		{"cooldown", c.Cooldown},
		{"arrow_hold", c.Hold},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return errors.New(d.name + " must be positive, got " + d.d.String())
		}
	}
	if c.Keepalive < time.Second {
		return errors.New("keepalive must be at least 1s, got " + c.Keepalive.String())
	}
	if c.InboxSize <= 0 {
		return errors.New("inbox_size must be positive")
	}
	switch c.Layout {
	case "rows", "cards":
	default:
		return errors.New("invalid layout " + c.Layout + " (allowed: rows, cards)")
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		return errors.New("smoothing must be in (0, 1]")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level, falling back to Info.
func (c Config) Level() slog.Level {
	l, _ := ParseLogLevel(c.LogLevel)
	return l
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level " + s + " (allowed: debug, info, warn, error)")
	}
}
