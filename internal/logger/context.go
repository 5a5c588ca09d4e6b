package logger

import (
	"context"

	"github.com/google/uuid"
)

// ctxKey is a private type so context values set here can't collide with
// other packages.
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUserID    ctxKey = "user_id"
	ctxKeyLogger    ctxKey = "logger"
)

// WithRequestID stores a correlation ID on the context, minting a fresh
// UUID when the caller has none (e.g. no X-Request-ID header arrived).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext returns the correlation ID, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// WithUserID stores the authenticated user's ID on the context so every
// log line emitted while serving their request carries it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the user ID, or "" when unset.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// WithLogger stores a logger on the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, l)
}

// FromContext returns the context's logger, falling back to the default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(Logger); ok {
		return l
	}
	return Default()
}

// extractContextFields collects the request_id and user_id fields carried
// by the context, if any.
func extractContextFields(ctx context.Context) []Field {
	var fields []Field

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, String("request_id", requestID))
	}

	if userID := UserIDFromContext(ctx); userID != "" {
		fields = append(fields, String("user_id", userID))
	}

	return fields
}

// Ctx is the shorthand handlers and services use: the context's logger
// pre-enriched with its request_id and user_id.
func Ctx(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
