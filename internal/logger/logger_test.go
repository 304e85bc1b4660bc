package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	var buf bytes.Buffer
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestWithServiceTagsRecords(t *testing.T) {
	buf := capture(t, slog.LevelInfo)

	WithService("jobs").Info("Starting job", "job", "SendPendingLeaveReminders")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "jobs", got[0]["service"])
	assert.Equal(t, "SendPendingLeaveReminders", got[0]["job"])
}

func TestContextHelpersRespectLevel(t *testing.T) {
	buf := capture(t, slog.LevelWarn)
	ctx := context.Background()

	InfoContext(ctx, "dropped")
	WarnContext(ctx, "Request refused", "status", 409)
	ErrorContext(ctx, "Request failed", "status", 502)

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "WARN", got[0]["level"])
	assert.Equal(t, "ERROR", got[1]["level"])
	assert.Equal(t, float64(502), got[1]["status"])
}
