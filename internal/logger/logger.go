package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger: JSON production output when env is
// "production", colored development output otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Sync flushes buffered entries. The error from syncing stdout/stderr
// on some platforms is not actionable and is ignored.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}
