package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogEvent(t *testing.T) {
	ev := NewLogEvent(LevelInfo, "server started", SourceTerminal)

	assert.NoError(t, ev.Validate())
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestLogEvent_Validate(t *testing.T) {
	valid := func() LogEvent {
		return LogEvent{
			ID:        "0193e9b1-7e4e-7c2a-b3ad-111111111111",
			Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Level:     LevelWarn,
			Message:   "disk almost full",
			Source:    SourceCI,
		}
	}

	t.Run("valid event", func(t *testing.T) {
		ev := valid()
		require.NoError(t, ev.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*LogEvent)
		errMsg string
	}{
		{
			name:   "malformed id",
			mutate: func(ev *LogEvent) { ev.ID = "not-a-uuid" },
			errMsg: "invalid id",
		},
		{
			name:   "missing timestamp",
			mutate: func(ev *LogEvent) { ev.Timestamp = time.Time{} },
			errMsg: "timestamp is required",
		},
		{
			name:   "unknown level",
			mutate: func(ev *LogEvent) { ev.Level = "fatal" },
			errMsg: "invalid level",
		},
		{
			name:   "empty message",
			mutate: func(ev *LogEvent) { ev.Message = "" },
			errMsg: "message is required",
		},
		{
			name:   "unknown source",
			mutate: func(ev *LogEvent) { ev.Source = "syslog" },
			errMsg: "invalid source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid()
			tt.mutate(&ev)

			err := ev.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
