package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// scope - поля запроса, которые попадают в каждую строку лога.
type scope struct {
	requestID string
	userID    string
	attrs     []any
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(ctxKey{}).(scope)
	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeFrom(ctx)
	s.requestID = requestID
	return withScope(ctx, s)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	s := scopeFrom(ctx)
	s.userID = userID
	return withScope(ctx, s)
}

// WithAttrs привязывает к context дополнительные пары key/value (например event_id вебхука).
func WithAttrs(ctx context.Context, args ...any) context.Context {
	s := scopeFrom(ctx)
	s.attrs = append(append([]any(nil), s.attrs...), args...)
	return withScope(ctx, s)
}

func GetRequestID(ctx context.Context) string { return scopeFrom(ctx).requestID }

func GetUserID(ctx context.Context) string { return scopeFrom(ctx).userID }

// FromContext возвращает логгер с полями запроса.
func FromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	s := scopeFrom(ctx)

	fields := make([]any, 0, 4+len(s.attrs))
	if s.requestID != "" {
		fields = append(fields, "request_id", s.requestID)
	}
	if s.userID != "" {
		fields = append(fields, "user_id", s.userID)
	}
	fields = append(fields, s.attrs...)

	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func CtxDebug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func CtxError(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

// CtxWithError пишет ошибку полем "error".
func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	FromContext(ctx).Error(msg, append([]any{"error", err.Error()}, args...)...)
}
