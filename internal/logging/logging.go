// Package logging builds the zerolog loggers used by the TUI and line mode.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const logPerm = 0o644

// New returns a logger writing to w. Pretty output uses the console writer.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", "sticky-notes").
		Logger()
}

// OpenFile opens (appending) the log file at path and returns a JSON logger
// on it together with the file so the caller can close it.
func OpenFile(path, level string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logPerm)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log %q: %w", path, err)
	}
	return New(f, level, false), f, nil
}
