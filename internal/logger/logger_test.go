package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "custom json config",
			config: &Config{
				Level:  "debug",
				Format: "json",
				Output: io.Discard,
			},
		},
		{
			name: "console config",
			config: &Config{
				Level:  "info",
				Format: "console",
				Output: io.Discard,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			assert.NotNil(t, logger)
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	logger.Info("sync started")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sync started", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	child := logger.With().
		Str("entity", "Video").
		Int("total", 3).
		Bool("forced", true).
		Logger()

	child.Info("table replicated")

	entry := decode(t, buf)
	assert.Equal(t, "Video", entry["entity"])
	assert.Equal(t, float64(3), entry["total"])
	assert.Equal(t, true, entry["forced"])
	assert.Equal(t, "table replicated", entry["message"])
}

func TestLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Component("gate").Info("denied")

	entry := decode(t, buf)
	assert.Equal(t, "gate", entry["component"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "error",
		Format: "json",
		Output: buf,
	})

	testErr := errors.New("remote unreachable")
	logger.ErrorWith("sync failed", testErr, map[string]interface{}{
		"target": "mysql",
		"tables": 6,
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "sync failed", entry["message"])
	assert.Equal(t, "remote unreachable", entry["error"])
	assert.Equal(t, "mysql", entry["target"])
	assert.Equal(t, float64(6), entry["tables"])
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	ctx := logger.WithContext(context.Background())
	FromContext(ctx).Info("from context")

	entry := decode(t, buf)
	assert.Equal(t, "from context", entry["message"])
}

func TestLogger_FromEmptyContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, Global(), FromContext(context.Background()))
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{
			name:     "debug level logs debug",
			level:    "debug",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: true,
		},
		{
			name:     "info level skips debug",
			level:    "info",
			logFunc:  func(l *Logger) { l.Debug("debug message") },
			expected: false,
		},
		{
			name:     "error level logs error",
			level:    "error",
			logFunc:  func(l *Logger) { l.Error("error message") },
			expected: true,
		},
		{
			name:     "error level skips warn",
			level:    "error",
			logFunc:  func(l *Logger) { l.Warn("warn message") },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(&Config{
				Level:  tt.level,
				Format: "json",
				Output: buf,
			})

			tt.logFunc(logger)

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.log")
	logger := New(&Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1})

	logger.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().ErrorWith("x", errors.New("y"), nil) })
}

func BenchmarkLogger_WithFields(b *testing.B) {
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: io.Discard,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.With().
			Str("entity", "Course").
			Int("row", i).
			Logger().
			Info("benchmark message")
	}
}
