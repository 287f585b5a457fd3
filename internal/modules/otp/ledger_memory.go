package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type entry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// memoryLedger is a process-local Ledger.
type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    Options
}

// NewMemoryLedger creates an in-memory ledger.
func NewMemoryLedger(opts Options) Ledger {
	return &memoryLedger{entries: make(map[string]*entry), opts: opts.withDefaults()}
}

func (l *memoryLedger) Issue(_ context.Context, phone string) (string, error) {
	code, err := l.opts.Generate()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[phone] = &entry{code: code, expiresAt: l.opts.Clock.Now().Add(l.opts.TTL)}
	return code, nil
}

func (l *memoryLedger) Verify(_ context.Context, phone, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[phone]
	if !ok {
		return ErrNotFound
	}
	if l.opts.Clock.Now().After(e.expiresAt) {
		delete(l.entries, phone)
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		e.attempts++
		if l.opts.MaxAttempts > 0 && e.attempts >= l.opts.MaxAttempts {
			delete(l.entries, phone)
			return ErrTooManyAttempts
		}
		return ErrMismatch
	}

	delete(l.entries, phone)
	return nil
}

func (l *memoryLedger) Reissue(ctx context.Context, phone string) (string, error) {
	if err := l.Invalidate(ctx, phone); err != nil {
		return "", err
	}
	return l.Issue(ctx, phone)
}

func (l *memoryLedger) Invalidate(_ context.Context, phone string) error {
	l.mu.Lock()
	delete(l.entries, phone)
	l.mu.Unlock()
	return nil
}
