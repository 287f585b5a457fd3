package notification

import (
	"context"
	"log/slog"
)

// logSMSSender writes messages to the log instead of an SMS gateway. It is the
// only place an OTP code is ever logged.
type logSMSSender struct {
	log *slog.Logger
}

// NewLogSMSSender creates an SMS sender for development.
func NewLogSMSSender(log *slog.Logger) SMSSender {
	return &logSMSSender{log: log}
}

func (s *logSMSSender) Send(ctx context.Context, to, message string) error {
	s.log.InfoContext(ctx, "DEV SMS: message would be sent", "to", to, "message", message)
	return nil
}
