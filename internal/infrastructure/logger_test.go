package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizpipe/internal/config"
)

func TestInitializeLogger_WritesJSONFile(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()
	defer slog.SetDefault(slog.Default())

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestInitializeLogger_Once(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()
	defer slog.SetDefault(slog.Default())

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestTraceHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "debug"}, &buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.With("component", "test").InfoContext(ctx, "with trace")
	logger.InfoContext(context.Background(), "without trace")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var withTrace, withoutTrace map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &withTrace))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &withoutTrace))

	assert.Equal(t, "trace-123", withTrace["trace_id"])
	assert.Equal(t, "test", withTrace["component"])
	assert.NotContains(t, withoutTrace, "trace_id")
}

func TestParseLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
	assert.Equal(t, parseLogLevel("bogus"), parseLogLevel("info"))
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing trace IDs are kept")
	assert.Empty(t, GetTraceID(context.Background()))
}
