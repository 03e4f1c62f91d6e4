package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	correlationIDKey
	loggerKey
)

// GenerateCorrelationID returns a short id used when the caller sent none.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// ContextWithRequestID tags ctx with the chi request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID tags ctx with the id shared by related requests
// and the events they publish.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns "" when ctx carries none.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// ContextWithLogger stores the request logger, already carrying user fields
// added by the auth middleware.
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx picks the logger stored in ctx, else fallback, and stamps it with the
// request and correlation ids.
func Ctx(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	logger := fallback
	if stored, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		logger = stored
	}
	fields := logger.With()
	if id, _ := ctx.Value(requestIDKey).(string); id != "" {
		fields = fields.Str("request_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields = fields.Str("correlation_id", id)
	}
	l := fields.Logger()
	return &l
}
