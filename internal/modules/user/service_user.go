package user

import (
	"context"
	"errors"

	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/notification/templates"
	"github.com/google/uuid"
)

func (s *service) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	ok, err := s.repo.Exists(ctx, phoneNumber)
	if err != nil {
		s.logger.Error("exists check failed", "phone", phoneNumber, "error", err)
		return false, internal(err)
	}
	return ok, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	u := &User{
		ID:          id.String(),
		PhoneNumber: in.PhoneNumber,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		IsVerified:  true, // only reachable after OTP verification
		CreatedAt:   s.clock.Now().UTC(),
	}
	if in.Email != "" {
		email := in.Email
		u.Email = &email
	}

	if err := s.repo.Insert(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			s.logger.Warn("registration rejected, phone already registered", "phone", in.PhoneNumber)
			return nil, err
		}
		s.logger.Error("failed to create user", "phone", in.PhoneNumber, "error", err)
		return nil, internal(err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "phone", u.PhoneNumber)
	s.sendWelcome(ctx, u)
	return u, nil
}

func (s *service) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	u, err := s.repo.FindByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.logger.Error("find by phone failed", "phone", phoneNumber, "error", err)
		return nil, internal(err)
	}
	return u, nil
}

// sendWelcome dispatches the welcome email when the user supplied an address.
func (s *service) sendWelcome(ctx context.Context, u *User) {
	if s.notification == nil || u.Email == nil {
		return
	}
	data := templates.WelcomeData{FirstName: u.FirstName}
	if s.config != nil {
		data.AppName = s.config.Server.AppName
		data.SupportEmail = s.config.SMTP.From
	}
	if err := notification.SendTemplate(ctx, s.notification, templates.Welcome, *u.Email,
		[]notification.Channel{notification.ChannelEmail}, notification.PriorityLow, data); err != nil {
		s.logger.Error("failed to send welcome email", "user_id", u.ID, "error", err)
	}
}

// internal keeps context errors recognizable and wraps everything else.
func internal(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ErrInternal.WithCause(err)
}
