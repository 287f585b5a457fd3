package otp

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyGrace keeps expired entries around long enough to report ErrExpired
// instead of ErrNotFound.
const keyGrace = time.Minute

// redisLedger stores each entry as a hash under otp:<phone>.
type redisLedger struct {
	rdb  redis.UniversalClient
	opts Options
}

// NewRedisLedger creates a Redis-backed ledger shared across API instances.
func NewRedisLedger(rdb redis.UniversalClient, opts Options) Ledger {
	return &redisLedger{rdb: rdb, opts: opts.withDefaults()}
}

func otpKey(phone string) string { return "otp:" + phone }

func (l *redisLedger) Issue(ctx context.Context, phone string) (string, error) {
	code, err := l.opts.Generate()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}

	key := otpKey(phone)
	expiresAt := l.opts.Clock.Now().Add(l.opts.TTL)
	_, err = l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "code", code, "expires_at", expiresAt.UnixMilli(), "attempts", 0)
		p.PExpire(ctx, key, l.opts.TTL+keyGrace)
		return nil
	})
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return code, nil
}

func (l *redisLedger) Verify(ctx context.Context, phone, code string) error {
	key := otpKey(phone)
	fields, err := l.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if len(fields) == 0 {
		return ErrNotFound
	}

	expiresMs, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		_ = l.rdb.Del(ctx, key).Err()
		return ErrNotFound
	}
	if l.opts.Clock.Now().After(time.UnixMilli(expiresMs)) {
		if err := l.rdb.Del(ctx, key).Err(); err != nil {
			return ErrInternal.WithCause(err)
		}
		return ErrExpired
	}

	if subtle.ConstantTimeCompare([]byte(fields["code"]), []byte(code)) != 1 {
		attempts, err := l.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
		if err != nil {
			return ErrInternal.WithCause(err)
		}
		if l.opts.MaxAttempts > 0 && attempts >= int64(l.opts.MaxAttempts) {
			_ = l.rdb.Del(ctx, key).Err()
			return ErrTooManyAttempts
		}
		return ErrMismatch
	}

	// Only the caller whose delete removes the key wins a concurrent race.
	n, err := l.rdb.Del(ctx, key).Result()
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *redisLedger) Reissue(ctx context.Context, phone string) (string, error) {
	// Issue already replaces the hash atomically.
	return l.Issue(ctx, phone)
}

func (l *redisLedger) Invalidate(ctx context.Context, phone string) error {
	if err := l.rdb.Del(ctx, otpKey(phone)).Err(); err != nil {
		return ErrInternal.WithCause(err)
	}
	return nil
}
