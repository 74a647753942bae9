package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("info"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer

	l, closer, err := New(Config{Level: "info"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	l.Debug("hidden")
	l.Info("motion started", "motion_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "motion started", rec["msg"])
	require.Equal(t, "abc", rec["motion_id"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer

	l, closer, err := New(Config{Level: "debug", Format: FormatText}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	l.Debug("poll", "code", 101)
	require.Contains(t, buf.String(), "msg=poll")
	require.Contains(t, buf.String(), "code=101")
}

func TestNewUnknownFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestNewWithFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "mockrobot.log")

	l, closer, err := New(Config{File: file}, &buf)
	require.NoError(t, err)

	l.Info("controller admitted", "addr", "127.0.0.1:5000")
	require.NoError(t, closer.Close())

	require.Contains(t, buf.String(), "controller admitted")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "controller admitted")
}
