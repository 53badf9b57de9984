package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level

	// JSON selects JSON output instead of logfmt-style text.
	JSON bool

	// AddSource adds the caller's file and line to every record.
	AddSource bool
}

// New creates a logger that writes to w through a SecureHandler.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler))
}

// ParseLevel parses a level name: debug, info, warn or error.
// The empty string is Warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
