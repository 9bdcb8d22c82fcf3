package log

import (
	"go.uber.org/zap"
)

// MLogger is a wrapper type of zap.Logger.
type MLogger struct {
	*zap.Logger
}

// With encapsulates zap.Logger With method to return MLogger instance.
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: l.Logger.With(fields...)}
}
