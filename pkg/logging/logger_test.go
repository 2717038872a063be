package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("emissions-api", "1.0.0", InfoLevel)
	logger.SetOutput(&buf)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.Info(ctx, "[TEST] hello", Fields{"mine": "Jharia"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "[TEST] hello", entry["message"])
	assert.Equal(t, "emissions-api", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "Jharia", entry["mine"])
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "1.0.0", WarnLevel)
	logger.SetOutput(&buf)

	logger.Debug(context.Background(), "debug", nil)
	logger.Info(context.Background(), "info", nil)
	logger.Warn(context.Background(), "warn", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["message"])

	logger.SetLevel(DebugLevel)
	buf.Reset()
	logger.Debug(context.Background(), "debug", nil)
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestStructuredLogger_ErrorCarriesCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "1.0.0", InfoLevel)
	logger.SetOutput(&buf)

	logger.Error(context.Background(), "[FAIL] boom", Fields{}, errors.New("kaput"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "kaput", entries[0]["error"])
	assert.Contains(t, entries[0]["file"], "logger_test.go")
}

func TestStructuredLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "1.0.0", InfoLevel)
	logger.SetOutput(&buf)

	code := -1
	logger.exitFn = func(c int) { code = c }
	logger.Fatal(context.Background(), "[FATAL] stop", nil, errors.New("dead"))

	assert.Equal(t, 1, code)
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0]["stack_trace"])
}

func TestContextLogger_MergeFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("svc", "1.0.0", InfoLevel)
	logger.SetOutput(&buf)

	scoped := logger.WithFields(Fields{"component": "ingest", "stage": "start"})
	scoped.Info(context.Background(), "msg", Fields{"stage": "done"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "ingest", entries[0]["component"])
	assert.Equal(t, "done", entries[0]["stage"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
