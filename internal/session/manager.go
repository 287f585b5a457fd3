package session

import (
	"context"
	"log/slog"

	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/google/uuid"
)

// Manager hands out per-client Controllers on a server, each persisted under
// its own key in a shared store.
type Manager struct {
	store kv.Store
	log   *slog.Logger
}

func NewManager(store kv.Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

func key(sessionID string) string { return "session:" + sessionID }

// Create starts a new logged-out session and returns its id.
func (m *Manager) Create(ctx context.Context) (string, *Controller, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", nil, err
	}
	c, err := m.Open(ctx, id.String())
	if err != nil {
		return "", nil, err
	}
	return id.String(), c, nil
}

// Open loads the session with the given id. Unknown ids yield a logged-out session.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Controller, error) {
	return NewController(ctx, m.store, key(sessionID), m.log.With("session_id", sessionID))
}

// Store is the backing store; redirect targets live there too.
func (m *Manager) Store() kv.Store { return m.store }

// RedirectStore scopes the redirect-after-login key to one session.
func (m *Manager) RedirectStore(sessionID string) kv.Store {
	return prefixed{store: m.store, prefix: key(sessionID) + ":"}
}

type prefixed struct {
	store  kv.Store
	prefix string
}

func (p prefixed) Get(ctx context.Context, k string) ([]byte, bool, error) {
	return p.store.Get(ctx, p.prefix+k)
}

func (p prefixed) Set(ctx context.Context, k string, v []byte) error {
	return p.store.Set(ctx, p.prefix+k, v)
}

func (p prefixed) Delete(ctx context.Context, k string) error {
	return p.store.Delete(ctx, p.prefix+k)
}
