package logger

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewSession attaches a fresh session ID to every entry logged through the
// returned logger.
func NewSession(l *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return l.With(zap.String("session", id)), id
}
