package sms

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. Development only.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a sender that logs through log.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("sms")}
}

// Send logs the message and returns a random message id.
func (s *LogSender) Send(_ context.Context, to, body string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	s.log.Info("sms (dev mode, not delivered)",
		zap.String("to", to),
		zap.String("body", body),
		zap.String("message_id", id.String()),
	)
	return id.String(), nil
}
