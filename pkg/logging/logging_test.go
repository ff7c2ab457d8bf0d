package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"eRRor", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestNew_MirrorsToJSON(t *testing.T) {
	var console, mirror bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &console, Mirror: &mirror})

	logger.Debug("hidden")
	Component(logger, "cache").Info("validator cached", "key", "core_1.0")

	assert.Contains(t, console.String(), "validator cached")
	assert.NotContains(t, console.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(mirror.Bytes(), &rec))
	assert.Equal(t, "validator cached", rec["msg"])
	assert.Equal(t, "cache", rec["component"])
	assert.Equal(t, "core_1.0", rec["key"])
}

func TestOpen_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, closer, err := Open("debug", "json", path)
	require.NoError(t, err)
	logger.Debug("preload started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "preload started"))
}

func TestOpen_BadFile(t *testing.T) {
	_, _, err := Open("info", "text", filepath.Join(t.TempDir(), "missing", "gateway.log"))
	assert.Error(t, err)
}
