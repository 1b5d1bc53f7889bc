//go:build !tinygo

package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENVDISPLAY_"

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then the process environment. The result is not
// validated; flags may still change it.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = LoadFile(c, path); err != nil {
			return Config{}, err
		}
	}
	return ApplyEnv(c, os.Getenv)
}

// LoadFile overlays the keys present in the YAML file at path onto c.
func LoadFile(c Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overlays ENVDISPLAY_* variables returned by getenv onto c.
// Empty variables are ignored.
func ApplyEnv(c Config, getenv func(string) string) (Config, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(getenv(EnvPrefix + key))
	}
	for key, dst := range map[string]*string{
		"CLIENT_ID":      &c.ClientID,
		"BROKER":         &c.Broker,
		"TOPIC":          &c.Topic,
		"USERNAME":       &c.Username,
		"PASSWORD":       &c.Password,
		"PAYLOAD_FORMAT": &c.PayloadFormat,
		"LAYOUT":         &c.Layout,
		"LOG_LEVEL":      &c.LogLevel,
	} {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}
	for key, dst := range map[string]*time.Duration{
		"RETRY_INTERVAL":  &c.RetryInterval,
		"CONNECT_TIMEOUT": &c.ConnectTimeout,
		"KEEPALIVE":       &c.Keepalive,
		"TICK":            &c.Tick,
		"COOLDOWN":        &c.Cooldown,
		"ARROW_HOLD":      &c.Hold,
	} {
		v := lookup(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = d
	}
	if v := lookup("INBOX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sINBOX_SIZE %q: %w", EnvPrefix, v, err)
		}
		c.InboxSize = n
	}
	if v := lookup("ANIMATED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sANIMATED %q: %w", EnvPrefix, v, err)
		}
		c.Animated = b
	}
	if v := lookup("SMOOTHING"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sSMOOTHING %q: %w", EnvPrefix, v, err)
		}
		c.Smoothing = float32(f)
	}
	if v := lookup("BACKLIGHT"); v != "" {
		n, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %sBACKLIGHT %q: %w", EnvPrefix, v, err)
		}
		c.Backlight = uint8(n)
	}
	return c, nil
}
