// Package log builds the console's slog logger: a text handler on stderr
// or a rotating file, always behind a RedactingHandler.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the level and sink.
type Options struct {
	// Level is debug, info, warn or error. Empty disables logging.
	Level string

	// File, when set, receives the log instead of stderr.
	File string

	// Stderr overrides os.Stderr, mainly for tests.
	Stderr io.Writer
}

// ParseLevel parses a level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
	}
}

// New returns a logger for opts and a closer for its sink. With no level
// the logger discards everything.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.Level == "" {
		return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = opts.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if w == nil {
		w = os.Stderr
	}
	if opts.File != "" {
		rf, err := NewRotatingFile(opts.File, DefaultMaxSize, DefaultMaxBackups)
		if err != nil {
			return nil, nil, err
		}
		w, closer = rf, rf
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(handler)), closer, nil
}
