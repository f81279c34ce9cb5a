package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "DEBUG", want: slog.LevelDebug},
		{in: " warning ", want: slog.LevelWarn},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "debug+2", want: slog.LevelDebug + 2},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(Options{Level: "info", Writer: &buf, Component: "agentcli"})

	lg.Debug("hidden")
	lg.Info("shown", "port", 3000)

	line := decodeLine(t, &buf)
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "agentcli", line["component"])
	assert.Equal(t, float64(3000), line["port"])
}

func TestNewLoggerDefaultComponent(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(Options{Writer: &buf, Component: "  "}).Info("hello")

	assert.Equal(t, DefaultComponent, decodeLine(t, &buf)["component"])
}
