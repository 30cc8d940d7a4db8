package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes outbound mail to the log instead of sending it. Used in
// development and as the default until a real provider is wired in.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendMagicLink(_ context.Context, email, loginURL string) error {
	m.logger.Info("magic link issued",
		zap.String("email", email),
		zap.String("login_url", loginURL),
	)
	return nil
}
