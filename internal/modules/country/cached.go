package country

import (
	"context"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"golang.org/x/sync/singleflight"
)

// cached memoizes a successful fetch for ttl and collapses concurrent fetches
// into one upstream call. Failures are not cached.
type cached struct {
	next  Provider
	ttl   time.Duration
	clock clock.Clock
	group singleflight.Group

	mu      sync.RWMutex
	list    []Country
	fetched time.Time
}

// WithCache wraps next with an in-process cache.
func WithCache(next Provider, ttl time.Duration, c clock.Clock) Provider {
	if c == nil {
		c = clock.Real{}
	}
	return &cached{next: next, ttl: ttl, clock: c}
}

func (p *cached) FetchCountries(ctx context.Context) ([]Country, error) {
	p.mu.RLock()
	if p.list != nil && p.clock.Now().Sub(p.fetched) < p.ttl {
		out := append([]Country(nil), p.list...)
		p.mu.RUnlock()
		return out, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do("countries", func() (any, error) {
		list, err := p.next.FetchCountries(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.list = list
		p.fetched = p.clock.Now()
		p.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]Country(nil), v.([]Country)...), nil
}

// fallback serves from a secondary provider when the primary fails.
type fallback struct {
	primary, secondary Provider
}

// WithFallback returns a Provider that consults secondary when primary fails.
func WithFallback(primary, secondary Provider) Provider {
	return &fallback{primary: primary, secondary: secondary}
}

func (p *fallback) FetchCountries(ctx context.Context) ([]Country, error) {
	list, err := p.primary.FetchCountries(ctx)
	if err == nil {
		return list, nil
	}
	if alt, altErr := p.secondary.FetchCountries(ctx); altErr == nil {
		return alt, nil
	}
	return nil, err
}
