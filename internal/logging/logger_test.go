package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestNew_Level(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		" WARN ":   zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, New(Config{Level: in, Output: &bytes.Buffer{}}).GetLevel(), in)
	}
}

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf, Service: "api"})

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Str("k", "v").Msg("hello")
	line := decodeLine(t, &buf)
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "api", line["service"])
	assert.Equal(t, "v", line["k"])
}

func TestCtx_AddsRequestAndCorrelationIDs(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	Ctx(ctx, base).Info().Msg("x")

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "corr-1", line["correlation_id"])
}

func TestCtx_PrefersStoredLogger(t *testing.T) {
	var stored, fallback bytes.Buffer
	ctx := ContextWithLogger(context.Background(), New(Config{Output: &stored}))

	Ctx(ctx, New(Config{Output: &fallback})).Info().Msg("x")

	assert.NotZero(t, stored.Len())
	assert.Zero(t, fallback.Len())
}

func TestGenerateCorrelationID(t *testing.T) {
	assert.Len(t, GenerateCorrelationID(), 8)
	assert.NotEqual(t, GenerateCorrelationID(), GenerateCorrelationID())
}

func TestSlogHandler_WritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	slogger := NewSlogLogger(New(Config{Output: &buf}))

	slogger.WithGroup("svc").Warn("restarting", slog.String("name", "http"), slog.Int("attempt", 2))

	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "restarting", line["message"])
	assert.Equal(t, "http", line["svc.name"])
	assert.EqualValues(t, 2, line["svc.attempt"])
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandler(New(Config{Level: "warn", Output: &bytes.Buffer{}}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewWatermillAdapter(New(Config{Output: &buf})).With(watermill.LogFields{"topic": "t1"})

	adapter.Error("publish failed", errors.New("boom"), watermill.LogFields{"uuid": "m1"})

	line := decodeLine(t, &buf)
	assert.Equal(t, "publish failed", line["message"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "t1", line["topic"])
	assert.Equal(t, "m1", line["uuid"])
	assert.Equal(t, "watermill", line["component"])
}
