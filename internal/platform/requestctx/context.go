// Package requestctx carries the request logger and trace ids from the HTTP
// middleware down to handlers and the CMS client.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey struct{}
	traceKey  struct{}
)

var nop = zap.NewNop()

// TraceInfo identifies the span serving a request.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// WithLogger scopes logger to ctx. A nil logger leaves ctx unchanged.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the request logger, or a no-op logger outside a request.
func Logger(ctx context.Context) *zap.Logger {
	return LoggerOr(ctx, nil)
}

// LoggerOr returns the request logger, or fallback when ctx carries none.
func LoggerOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return nop
}

// WithTrace records the serving span on ctx.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(ctx, traceKey{}, info)
}

// TraceID returns the trace id of the serving span, empty outside a traced request.
func TraceID(ctx context.Context) string {
	info, _ := ctx.Value(traceKey{}).(TraceInfo)
	return info.TraceID
}
