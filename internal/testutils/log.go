package testutils

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// LogHandler is a slog.Handler recording the records at or above its level.
type LogHandler struct {
	level slog.Level

	mu      sync.Mutex
	records []slog.Record
}

// NewLogHandler returns a LogHandler recording records at or above level.
func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{level: level}
}

// AssertLevels asserts how many records were logged per level.
// A nil levels map asserts that nothing was logged.
func (h *LogHandler) AssertLevels(t *testing.T, levels map[slog.Level]uint) bool {
	t.Helper()

	h.mu.Lock()
	defer h.mu.Unlock()

	if levels == nil {
		return assert.Empty(t, h.records, "Nothing should be logged")
	}

	have := make(map[slog.Level]uint)
	for _, r := range h.records {
		have[r.Level]++
	}
	if !assert.Equal(t, levels, have, "Logged levels do not match") {
		for _, r := range h.records {
			t.Logf("Logged %v %s", r.Level, r.Message)
		}
		return false
	}
	return true
}

// Enabled implements Handler.Enabled.
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements Handler.Handle.
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record.Clone())
	return nil
}

// WithAttrs implements Handler.WithAttrs. Attributes are not recorded.
func (h *LogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements Handler.WithGroup. Groups are not recorded.
func (h *LogHandler) WithGroup(string) slog.Handler {
	return h
}
