package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a slog.Logger with the requested level writing to stderr,
// leaving stdout to command output.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: levelFromString(level)}
	handler := slog.NewTextHandler(w, handlerOpts)
	return slog.New(handler)
}

func levelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
