package user

import (
	"context"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
)

// Latency holds the artificial delay added to each repository call.
type Latency struct {
	Exists time.Duration
	Create time.Duration
	Find   time.Duration
}

type slowRepository struct {
	next Repository
	lat  Latency
}

// WithLatency wraps next so every call first waits for its configured delay.
// A cancelled context aborts the wait and the call.
func WithLatency(next Repository, lat Latency) Repository {
	return &slowRepository{next: next, lat: lat}
}

func (r *slowRepository) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	if err := clock.Sleep(ctx, r.lat.Exists); err != nil {
		return false, err
	}
	return r.next.Exists(ctx, phoneNumber)
}

func (r *slowRepository) Insert(ctx context.Context, u *User) error {
	if err := clock.Sleep(ctx, r.lat.Create); err != nil {
		return err
	}
	return r.next.Insert(ctx, u)
}

func (r *slowRepository) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	if err := clock.Sleep(ctx, r.lat.Find); err != nil {
		return nil, err
	}
	return r.next.FindByPhone(ctx, phoneNumber)
}
