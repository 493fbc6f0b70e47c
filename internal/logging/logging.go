// Package logging wraps a package-level zap logger with request-scoped
// context fields, following the pattern in
// RoseWrightdev-Video-Conferencing's internal/v1/logging package.
package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Initialize sets up the global logger. development enables human-readable,
// colorized output; production mode emits JSON with ISO8601 timestamps.
func Initialize(development bool) error {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		logger, err = cfg.Build(zap.AddCallerSkip(1))
	})
	return err
}

// L returns the global logger, falling back to a development logger if
// Initialize was never called (e.g. in tests).
func L() *zap.Logger {
	if logger == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return logger
}

// WithRequestID returns a context carrying a request id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func fields(ctx context.Context, extra []zap.Field) []zap.Field {
	if ctx == nil {
		return extra
	}
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		extra = append(extra, zap.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok {
		extra = append(extra, zap.String("user_id", uid))
	}
	return extra
}

func Info(ctx context.Context, msg string, f ...zap.Field) {
	L().Info(msg, fields(ctx, f)...)
}

func Warn(ctx context.Context, msg string, f ...zap.Field) {
	L().Warn(msg, fields(ctx, f)...)
}

func Error(ctx context.Context, msg string, f ...zap.Field) {
	L().Error(msg, fields(ctx, f)...)
}
