package app

import (
	"context"

	"dronemarket_backend/internal/email"
	"dronemarket_backend/internal/logger"
)

// logMailer используется для локальной разработки без SMTP.
type logMailer struct{}

func (logMailer) Send(ctx context.Context, msg *email.Message) error {
	logger.CtxInfo(ctx, "email (not sent, SMTP disabled)", "to", msg.To, "subject", msg.Subject)
	return nil
}
