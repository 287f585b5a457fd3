package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"
)

// smtpEmailSender sends mail through an SMTP relay with STARTTLS.
type smtpEmailSender struct {
	server *mail.SMTPServer
	from   string
	log    *slog.Logger
}

// SMTPOptions configures the SMTP sender.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPEmailSender returns an EmailSender, or nil when no host is configured.
func NewSMTPEmailSender(opts SMTPOptions, log *slog.Logger) EmailSender {
	if opts.Host == "" {
		return nil
	}
	server := mail.NewSMTPClient()
	server.Host = opts.Host
	server.Port = opts.Port
	server.Username = opts.Username
	server.Password = opts.Password
	server.Encryption = mail.EncryptionSTARTTLS
	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	return &smtpEmailSender{server: server, from: opts.From, log: log}
}

func (s *smtpEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	email := mail.NewMSG()
	email.SetFrom(s.from).AddTo(to).SetSubject(subject)
	email.SetBody(mail.TextHTML, htmlBody)
	if textBody != "" {
		email.AddAlternative(mail.TextPlain, textBody)
	}
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err = email.Send(client); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent via smtp", "to", to)
	return nil
}
