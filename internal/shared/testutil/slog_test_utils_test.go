package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("series built", slog.Int("groups", 5))
		logger.Error("join failed", slog.String("key", "CA"))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("series built"))
		assert.True(t, handler.ContainsAttr("key", "CA"))
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "pipeline")).Warn("row skipped")

		assert.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "pipeline"))
	})

	t.Run("filters by level and clears", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}
