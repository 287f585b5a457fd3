package otp

import (
	"context"
	"log/slog"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/notification/templates"
)

// Service is a Ledger that also delivers every issued code over SMS.
type Service interface {
	Ledger
}

type service struct {
	ledger       Ledger
	notification notification.Service
	logger       *slog.Logger
	appName      string
	ttl          time.Duration
}

// Config holds the dependencies for the OTP service. Without a notification
// service, codes are issued but not delivered.
type Config struct {
	Ledger       Ledger
	Notification notification.Service
	Logger       *slog.Logger
	AppName      string
	TTL          time.Duration
}

func NewService(cfg *Config) Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		ledger:       cfg.Ledger,
		notification: cfg.Notification,
		logger:       cfg.Logger,
		appName:      cfg.AppName,
		ttl:          ttl,
	}
}

func (s *service) Issue(ctx context.Context, phone string) (string, error) {
	code, err := s.ledger.Issue(ctx, phone)
	if err != nil {
		s.logger.Error("otp issue failed", "phone", phone, "error", err)
		return "", err
	}
	s.logger.Info("otp issued", "phone", phone)
	s.deliver(ctx, phone, code)
	return code, nil
}

func (s *service) Reissue(ctx context.Context, phone string) (string, error) {
	code, err := s.ledger.Reissue(ctx, phone)
	if err != nil {
		s.logger.Error("otp reissue failed", "phone", phone, "error", err)
		return "", err
	}
	s.logger.Info("otp reissued", "phone", phone)
	s.deliver(ctx, phone, code)
	return code, nil
}

func (s *service) Verify(ctx context.Context, phone, code string) error {
	if err := s.ledger.Verify(ctx, phone, code); err != nil {
		s.logger.Warn("otp verification rejected", "phone", phone, "error", err)
		return err
	}
	s.logger.Info("otp verified", "phone", phone)
	return nil
}

func (s *service) Invalidate(ctx context.Context, phone string) error {
	return s.ledger.Invalidate(ctx, phone)
}

func (s *service) deliver(ctx context.Context, phone, code string) {
	if s.notification == nil {
		return
	}
	data := templates.OTPCodeData{AppName: s.appName, Code: code, TTLMinutes: int(s.ttl / time.Minute)}
	if err := notification.SendTemplate(ctx, s.notification, templates.OTPCode, phone,
		[]notification.Channel{notification.ChannelSMS}, notification.PriorityHigh, data); err != nil {
		s.logger.Error("otp delivery failed", "phone", phone, "error", err)
	}
}
