package otp

import (
	"context"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
)

// Latency holds the artificial delays of the mock SMS gateway.
type Latency struct {
	Send   time.Duration
	Verify time.Duration
}

type slowLedger struct {
	next Ledger
	lat  Latency
}

// WithLatency delays issue and verify calls. Invalidate is never delayed.
func WithLatency(next Ledger, lat Latency) Ledger {
	return &slowLedger{next: next, lat: lat}
}

func (l *slowLedger) Issue(ctx context.Context, phone string) (string, error) {
	if err := clock.Sleep(ctx, l.lat.Send); err != nil {
		return "", err
	}
	return l.next.Issue(ctx, phone)
}

func (l *slowLedger) Verify(ctx context.Context, phone, code string) error {
	if err := clock.Sleep(ctx, l.lat.Verify); err != nil {
		return err
	}
	return l.next.Verify(ctx, phone, code)
}

func (l *slowLedger) Reissue(ctx context.Context, phone string) (string, error) {
	if err := clock.Sleep(ctx, l.lat.Send); err != nil {
		return "", err
	}
	return l.next.Reissue(ctx, phone)
}

func (l *slowLedger) Invalidate(ctx context.Context, phone string) error {
	return l.next.Invalidate(ctx, phone)
}
