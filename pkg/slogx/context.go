package slogx

import (
	"context"
	"log/slog"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/idx"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithRequestID attaches reqID to the context logger. A new ID is minted when
// reqID is empty.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		reqID = idx.New().String()
	}
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}
