package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "test")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
		{"infof", func() { log.Infof("count: %d", 42) }, "count: 42", "info"},
		{"warnf", func() { log.Warnf("stale entries: %d", 3) }, "stale entries: 3", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "test", entry["env"])
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "test")

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "test")

	log.WithField("ticker", "SPY").
		WithFields(map[string]interface{}{"rows": 251, "cache": "hit"}).
		Info("prices loaded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "SPY", entry["ticker"])
	assert.Equal(t, float64(251), entry["rows"])
	assert.Equal(t, "hit", entry["cache"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "test")

	log.WithError(errors.New("feed timeout")).Error("fetch failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "feed timeout", entry["error"])
	assert.Equal(t, "fetch failed", entry["message"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("ignored")
	})
}
