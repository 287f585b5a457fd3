package user

import (
	"context"
	"log/slog"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/config"
	"github.com/delordemm1/go-otp-chat/internal/notification"
)

// Service is the credential store as seen by the rest of the application.
type Service interface {
	// Exists reports whether phoneNumber is registered. Absence is not an error.
	Exists(ctx context.Context, phoneNumber string) (bool, error)
	// Create registers a new verified user. It fails with ErrDuplicateUser
	// when the phone number already has a record.
	Create(ctx context.Context, in CreateInput) (*User, error)
	// FindByPhone returns the user or ErrNotFound.
	FindByPhone(ctx context.Context, phoneNumber string) (*User, error)
}

type service struct {
	repo         Repository
	logger       *slog.Logger
	clock        clock.Clock
	notification notification.Service
	config       *config.Config
}

// Config holds the dependencies for the user service. Notification is
// optional; without it no welcome email is sent.
type Config struct {
	Repo         Repository
	Logger       *slog.Logger
	Clock        clock.Clock
	Notification notification.Service
	Config       *config.Config
}

// NewService creates a new user service with the given dependencies.
func NewService(cfg *Config) Service {
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}
	return &service{
		repo:         cfg.Repo,
		logger:       cfg.Logger,
		clock:        c,
		notification: cfg.Notification,
		config:       cfg.Config,
	}
}
