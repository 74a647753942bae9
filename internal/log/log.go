// Package log builds the process logger: slog with a configurable level and
// format, optionally teed into a rotating log file.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
)

const (
	FormatJSON = "json"
	FormatText = "text"

	defaultMaxSizeKB = 10 * 1024
	defaultMaxRolls  = 3
)

type Config struct {
	Level  string
	Format string

	// File enables a rotating log file next to stdout.
	File      string
	MaxSizeKB int64
	MaxRolls  int
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns the logger described by conf and a closer for the log file,
// which is a no-op when no file is configured.
func New(conf Config, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	var (
		w      = stdout
		closer io.Closer = nopCloser{}
	)
	if conf.File != "" {
		r, err := newRotator(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("new log rotator: %w", err)
		}
		w = teeWriter{stdout: stdout, file: r}
		closer = r
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(conf.Level)}

	var h slog.Handler
	switch strings.ToLower(conf.Format) {
	case "", FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", conf.Format)
	}

	return slog.New(h), closer, nil
}

func newRotator(conf Config) (*rotator.Rotator, error) {
	if err := os.MkdirAll(filepath.Dir(conf.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	maxSize := conf.MaxSizeKB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeKB
	}
	maxRolls := conf.MaxRolls
	if maxRolls <= 0 {
		maxRolls = defaultMaxRolls
	}

	return rotator.New(conf.File, maxSize, false, maxRolls)
}

// teeWriter writes every record to stdout and the rotating file.
type teeWriter struct {
	stdout io.Writer
	file   io.Writer
}

func (t teeWriter) Write(p []byte) (int, error) {
	_, _ = t.stdout.Write(p)
	if _, err := t.file.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
