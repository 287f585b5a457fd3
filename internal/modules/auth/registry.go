package auth

import (
	"context"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched flow is kept by a Registry.
const DefaultIdleTTL = 30 * time.Minute

// Entry is a flow hosted by a Registry together with the server-side
// session it will log in and the notices and navigation it produced.
type Entry struct {
	Flow      *Flow
	SessionID string

	notices *notification.Buffer
	nav     *navigation.Recorder
	touched time.Time
}

// Notices returns and clears the notices produced since the last call.
func (e *Entry) Notices() []notification.Notice {
	if n := e.notices.Drain(); n != nil {
		return n
	}
	return []notification.Notice{}
}

// Redirect is the path the flow navigated to on completion, or "".
func (e *Entry) Redirect() string { return e.nav.Last() }

// RegistryConfig holds the shared collaborators of every hosted flow.
type RegistryConfig struct {
	// Deps supplies Users, OTP, Countries, Clock, Logger, ResendCooldown and
	// ExposeCodes. Session, Redirects, Nav and Notify are set per flow.
	Deps     Deps
	Sessions *session.Manager
	IdleTTL  time.Duration
}

// Registry hosts concurrent flows keyed by id, one per client attempt.
type Registry struct {
	deps     Deps
	sessions *session.Manager
	idleTTL  time.Duration
	clock    clock.Clock

	mu    sync.Mutex
	flows map[string]*Entry
}

func NewRegistry(cfg RegistryConfig) *Registry {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	var c clock.Clock = clock.Real{}
	if cfg.Deps.Clock != nil {
		c = cfg.Deps.Clock
	}
	return &Registry{
		deps:     cfg.Deps,
		sessions: cfg.Sessions,
		idleTTL:  ttl,
		clock:    c,
		flows:    make(map[string]*Entry),
	}
}

// Start creates a flow in mode m backed by a fresh logged-out session. A
// non-empty redirect is followed once the flow completes.
func (r *Registry) Start(ctx context.Context, m Mode, redirect string) (*Entry, error) {
	if !m.Valid() {
		return nil, ErrInvalidMode
	}
	sid, ctrl, err := r.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	redirects := r.sessions.RedirectStore(sid)
	if redirect != "" {
		if err := kv.SetJSON(ctx, redirects, session.RedirectKey, redirect); err != nil {
			return nil, err
		}
	}

	e := &Entry{
		SessionID: sid,
		notices:   &notification.Buffer{},
		nav:       &navigation.Recorder{},
		touched:   r.clock.Now(),
	}
	deps := r.deps
	deps.Session = ctrl
	deps.Redirects = redirects
	deps.Nav = e.nav
	deps.Notify = e.notices
	e.Flow = NewFlow(uuid.NewString(), m, deps)

	r.mu.Lock()
	r.sweepLocked()
	r.flows[e.Flow.ID()] = e
	r.mu.Unlock()
	return e, nil
}

// Get returns the flow with the given id or ErrFlowNotFound.
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	e, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	e.touched = r.clock.Now()
	return e, nil
}

// Remove stops and forgets a flow.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		e.Flow.Close()
	}
}

// Len returns the number of hosted flows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Close stops every hosted flow.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.flows {
		e.Flow.Close()
		delete(r.flows, id)
	}
}

func (r *Registry) sweepLocked() {
	cutoff := r.clock.Now().Add(-r.idleTTL)
	for id, e := range r.flows {
		if e.touched.Before(cutoff) {
			e.Flow.Close()
			delete(r.flows, id)
		}
	}
}
