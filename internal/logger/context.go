package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// requestScope - поля запроса, которые попадают в каждую запись лога.
type requestScope struct {
	requestID string
	userID    string
}

func scopeOf(ctx context.Context) requestScope {
	s, _ := ctx.Value(ctxKey{}).(requestScope)
	return s
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeOf(ctx)
	s.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, s)
}

// WithUserID вызывается из AuthMiddleware после проверки токена
func WithUserID(ctx context.Context, userID string) context.Context {
	s := scopeOf(ctx)
	s.userID = userID
	return context.WithValue(ctx, ctxKey{}, s)
}

func RequestID(ctx context.Context) string { return scopeOf(ctx).requestID }

func UserID(ctx context.Context) string { return scopeOf(ctx).userID }

// FromContext возвращает глобальный логгер с request_id/user_id из ctx
func FromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	s := scopeOf(ctx)
	if s.requestID != "" {
		l = l.With("request_id", s.requestID)
	}
	if s.userID != "" {
		l = l.With("user_id", s.userID)
	}
	return l
}

func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

// CtxWithError - запись уровня error с полем "error"
func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	fields := append([]any{"error", err.Error()}, args...)
	FromContext(ctx).ErrorContext(ctx, msg, fields...)
}
