// Package otp issues and verifies single-use six-digit phone verification codes.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 5 * time.Minute
	codeSpace  = 1_000_000
)

// Ledger holds at most one live code per phone number.
type Ledger interface {
	// Issue generates a fresh code, replacing any live code for phone.
	Issue(ctx context.Context, phone string) (string, error)
	// Verify consumes the code on success. It fails with ErrNotFound,
	// ErrExpired (entry deleted), ErrMismatch (entry kept) or, when an attempt
	// cap is configured, ErrTooManyAttempts (entry deleted).
	Verify(ctx context.Context, phone, code string) error
	// Reissue invalidates any live code and issues a new one.
	Reissue(ctx context.Context, phone string) (string, error)
	// Invalidate drops the live code for phone, if any.
	Invalidate(ctx context.Context, phone string) error
}

// Options configures a ledger.
type Options struct {
	TTL time.Duration
	// MaxAttempts caps mismatched verifications per code. Zero means unlimited.
	MaxAttempts int
	Clock       clock.Clock
	// Generate overrides code generation; used by tests.
	Generate func() (string, error)
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Generate == nil {
		o.Generate = GenerateCode
	}
	return o
}

// GenerateCode returns a uniformly random code in 000000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
