package api

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tablerow/pkg/config"
)

func TestDefaultLogger_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(Logger)
		want string
	}{
		{"debug", func(l Logger) { l.Debug("debug message: %s", "test") }, "debug message: test"},
		{"info", func(l Logger) { l.Info("info message: %s", "test") }, "info message: test"},
		{"warn", func(l Logger) { l.Warn("warn message: %s", "test") }, "warn message: test"},
		{"error", func(l Logger) { l.Error("error message: %s", "test") }, "error message: test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewDefaultLoggerWithOutput(LogDebug, &buf)
			tt.log(logger)

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestDefaultLogger_SetLevel(t *testing.T) {
	logger := NewDefaultLoggerWithOutput(LogInfo, &bytes.Buffer{})

	for _, level := range []LogLevel{LogDebug, LogError, LogWarn, LogInfo} {
		logger.SetLevel(level)
		assert.Equal(t, level, logger.GetLevel())
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLoggerWithOutput(LogError, &buf)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("boom")

	output := buf.String()
	assert.Contains(t, output, "boom")
	assert.NotContains(t, output, "debug")
	assert.NotContains(t, output, "info")
	assert.NotContains(t, output, "warn")

	// 调整级别后立即生效
	logger.SetLevel(LogDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDefaultLogger_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLoggerWithOutput(LogInfo, &buf)
	logger.Info("plain")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewLoggerFromConfig_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFromConfig(&buf, config.LogConfig{Level: "warn", Format: "json"})
	assert.Equal(t, LogWarn, logger.GetLevel())

	logger.Info("dropped")
	logger.Slog().Warn("row id rejected", "table", "processes")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "row id rejected", entry["msg"])
	assert.Equal(t, "processes", entry["table"])
}

func TestNewLoggerFromConfig_BadLevel(t *testing.T) {
	logger := NewLoggerFromConfig(&bytes.Buffer{}, config.LogConfig{Level: "chatty"})
	assert.Equal(t, LogInfo, logger.GetLevel())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogDebug, false},
		{"INFO", LogInfo, false},
		{"", LogInfo, false},
		{"warning", LogWarn, false},
		{"error", LogError, false},
		{"nope", LogInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	// These should not panic
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	logger.Slog().Info("discarded")

	logger.SetLevel(LogDebug)
	// NoOpLogger ignores SetLevel and always returns LogInfo
	assert.Equal(t, LogInfo, logger.GetLevel())
}

func TestLogLevels_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogError, "ERROR"},
		{LogWarn, "WARN"},
		{LogInfo, "INFO"},
		{LogDebug, "DEBUG"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestDefaultLogger_Concurrency(t *testing.T) {
	var buf safeBuffer
	logger := NewDefaultLoggerWithOutput(LogInfo, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("message %d", n)
		}(i)
	}
	wg.Wait()

	output := buf.String()
	assert.Contains(t, output, "message 0")
	assert.Contains(t, output, "message 99")
}

// safeBuffer serializes writes from concurrent handlers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
