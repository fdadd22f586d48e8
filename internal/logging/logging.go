// Package logging builds the slog loggers used by the pool and the examples
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Supported handler formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

type disabledHandler struct{}

func (d disabledHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (d disabledHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (d disabledHandler) WithAttrs(_ []slog.Attr) slog.Handler          { return disabledHandler{} }
func (d disabledHandler) WithGroup(_ string) slog.Handler               { return disabledHandler{} }

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(disabledHandler{})
}

// ParseLevel converts debug, info, warn or error into a slog.Level.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New creates a logger writing to w in the given format (text or json)
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}
