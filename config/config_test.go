package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if c.RetryInterval != 5*time.Second {
		t.Errorf("RetryInterval = %v; want 5s", c.RetryInterval)
	}
	if c.Tick != 50*time.Millisecond {
		t.Errorf("Tick = %v; want 50ms", c.Tick)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr bool
	}{
		{"auto broker", func(c *Config) { c.Broker = BrokerAuto }, false},
		{"rows layout", func(c *Config) { c.Layout = "rows" }, false},
		{"missing client id", func(c *Config) { c.ClientID = " " }, true},
		{"broker without port", func(c *Config) { c.Broker = "localhost" }, true},
		{"empty topic", func(c *Config) { c.Topic = "" }, true},
		{"wildcard topic", func(c *Config) { c.Topic = "sensors/#" }, true},
		{"unknown format", func(c *Config) { c.PayloadFormat = "xml" }, true},
		{"zero retry", func(c *Config) { c.RetryInterval = 0 }, true},
		{"negative hold", func(c *Config) { c.Hold = -time.Second }, true},
		{"sub-second keepalive", func(c *Config) { c.Keepalive = 500 * time.Millisecond }, true},
		{"zero inbox", func(c *Config) { c.InboxSize = 0 }, true},
		{"unknown layout", func(c *Config) { c.Layout = "grid" }, true},
		{"zero smoothing", func(c *Config) { c.Smoothing = 0 }, true},
		{"smoothing above one", func(c *Config) { c.Smoothing = 1.5 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("ParseLogLevel(trace) error = nil")
	}
}
