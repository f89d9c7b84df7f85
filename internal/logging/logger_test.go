package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_JSONLines(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)

	logger.Debug("gitlab api call", "path", "/projects")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "gitlab api call", entry["msg"])
	assert.Equal(t, "/projects", entry["path"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New("warn", "text", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Error("cleanup failed", "project_id", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cleanup failed")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("info", "xml", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
