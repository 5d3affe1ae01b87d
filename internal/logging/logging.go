// Package logging builds the per-component loggers. The terminal belongs to
// the UI, so output goes to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} [${prefix}]`

// Sink owns the log destination shared by every component logger.
type Sink struct {
	out   io.Writer
	file  *os.File
	level log.Lvl
}

// Open opens path for appending. An empty path discards all output.
func Open(path, level string) (*Sink, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return &Sink{out: io.Discard, level: lvl}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Sink{out: f, file: f, level: lvl}, nil
}

// NewSink wraps an existing writer, mostly for tests.
func NewSink(w io.Writer, level log.Lvl) *Sink {
	return &Sink{out: w, level: level}
}

// Logger returns a logger tagged with component.
func (s *Sink) Logger(component string) *log.Logger {
	l := log.New(component)
	l.SetOutput(s.out)
	l.SetLevel(s.level)
	l.SetHeader(header)
	return l
}

func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// ParseLevel maps a config string onto a gommon level.
func ParseLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off", "none":
		return log.OFF, nil
	default:
		return log.OFF, fmt.Errorf("unknown log level %q", level)
	}
}
