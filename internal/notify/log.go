package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log is the development notifier: it records the message instead of sending
// it, never revealing the one-time token carried in the action URL.
type Log struct {
	logger *zap.Logger
}

var _ Notifier = (*Log)(nil)

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, msg Message) error {
	l.logger.Info("email suppressed (no SMTP configured)",
		zap.String("kind", string(msg.Kind)),
		zap.String("recipient", msg.To),
		zap.String("site_title", msg.SiteTitle),
	)
	return nil
}
