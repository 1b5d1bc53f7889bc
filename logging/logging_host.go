//go:build !tinygo

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Formats accepted by ForFormat.
const (
	FormatDev  = "dev"
	FormatJSON = "json"
	FormatText = "text"
)

// NewDev returns a colorized development logger.
func NewDev(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// NewJSON returns a JSON logger.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ForFormat returns the logger for format.
func ForFormat(format string, w io.Writer, level slog.Level) (*slog.Logger, error) {
	switch format {
	case FormatDev, "":
		return NewDev(w, level), nil
	case FormatJSON:
		return NewJSON(w, level), nil
	case FormatText:
		return New(w, level), nil
	}
	return nil, fmt.Errorf("invalid log format %q (allowed: dev, json, text)", format)
}
