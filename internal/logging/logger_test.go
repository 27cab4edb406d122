package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "debug", "json"))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = WithAttrs(ctx, "run_id", "run-9")
	ctx = WithAttrs(ctx, "kind", "prisoners")

	logger.InfoContext(ctx, "import finished", "accepted", 3)

	m := decode(t, &buf)
	assert.Equal(t, "import finished", m["msg"])
	assert.Equal(t, "req-1", m["request_id"])
	assert.Equal(t, "run-9", m["run_id"])
	assert.Equal(t, "prisoners", m["kind"])
	assert.EqualValues(t, 3, m["accepted"])
}

func TestHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn", "text"))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithAttrs_DoesNotLeakToParent(t *testing.T) {
	parent := WithAttrs(context.Background(), "a", 1)
	_ = WithAttrs(parent, "b", 2)
	assert.Len(t, attrsFrom(parent), 1)
	assert.Equal(t, context.Background(), WithAttrs(context.Background()))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-2")
	ctx = WithAttrs(ctx, "run_id", "r")
	FromContext(ctx).Info("hello", "step", "parse")

	m := decode(t, &buf)
	assert.Equal(t, "req-2", m["request_id"])
	assert.Equal(t, "r", m["run_id"])
	assert.Equal(t, "parse", m["step"])
}
