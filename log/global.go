package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

var CtxLogKey = ctxLogKeyType{}

// Debug logs a message at DebugLevel.
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info logs a message at InfoLevel.
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// Fatal logs a message at FatalLevel, then calls os.Exit(1).
func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}

// With creates a child logger and adds structured context to it.
func With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: L().With(fields...).WithOptions(zap.AddCallerSkip(-1))}
}

// SetLevel alters the logging level.
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// GetLevel gets the logging level.
func GetLevel() zapcore.Level {
	return Level().Level()
}

// WithModule adds given module field to the logger in ctx
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, zap.String("module", module))
}

// WithFields returns a context with fields attached
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	base := ctxL()
	if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
		base = ctxLogger.Logger
	}
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: base.With(fields...)})
}

// Ctx returns a logger which will log contextual messages attached in ctx
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if ctxLogger, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return ctxLogger
		}
	}
	return &MLogger{Logger: ctxL()}
}
