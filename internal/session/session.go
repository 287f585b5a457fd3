// Package session owns the authenticated-user state of a client, its
// persistence, the protected-area guard and bearer tokens.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
)

// StoreKey is the storage key of a single-client session document.
const StoreKey = "app-store"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session is the authentication state. IsAuthenticated is true exactly when User is set.
type Session struct {
	User            *user.User `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
}

// Preferences are UI chrome flags persisted next to the session.
type Preferences struct {
	Theme       Theme `json:"theme" enum:"light,dark"`
	SidebarOpen bool  `json:"sidebarOpen"`
}

// document is the persisted shape.
type document struct {
	User            *user.User `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	Theme           Theme      `json:"theme"`
	SidebarOpen     bool       `json:"sidebarOpen"`
}

func defaults() document {
	return document{Theme: ThemeLight, SidebarOpen: true}
}

// Controller holds one client's session and writes every change through to storage.
type Controller struct {
	mu    sync.RWMutex
	store kv.Store
	key   string
	doc   document
	log   *slog.Logger
}

// NewController loads the session stored under key, or starts logged out
// when nothing is stored yet.
func NewController(ctx context.Context, store kv.Store, key string, log *slog.Logger) (*Controller, error) {
	c := &Controller{store: store, key: key, doc: defaults(), log: log}

	var doc document
	ok, err := kv.GetJSON(ctx, store, key, &doc)
	if err != nil {
		return nil, err
	}
	if ok {
		doc.IsAuthenticated = doc.User != nil
		if doc.Theme == "" {
			doc.Theme = ThemeLight
		}
		c.doc = doc
	}
	return c, nil
}

// Current returns a snapshot of the session.
func (c *Controller) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Session{User: copyUser(c.doc.User), IsAuthenticated: c.doc.IsAuthenticated}
}

func (c *Controller) Preferences() Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Preferences{Theme: c.doc.Theme, SidebarOpen: c.doc.SidebarOpen}
}

// Login marks u as the authenticated user. Who may log in is decided by the caller.
func (c *Controller) Login(ctx context.Context, u *user.User) error {
	return c.update(ctx, func(d *document) {
		d.User = copyUser(u)
		d.IsAuthenticated = u != nil
	})
}

// Logout clears the user. Preferences survive.
func (c *Controller) Logout(ctx context.Context) error {
	return c.update(ctx, func(d *document) {
		d.User = nil
		d.IsAuthenticated = false
	})
}

// Reset restores the logged-out state with default preferences.
func (c *Controller) Reset(ctx context.Context) error {
	return c.update(ctx, func(d *document) { *d = defaults() })
}

func (c *Controller) SetTheme(ctx context.Context, t Theme) error {
	return c.update(ctx, func(d *document) { d.Theme = t })
}

func (c *Controller) SetSidebarOpen(ctx context.Context, open bool) error {
	return c.update(ctx, func(d *document) { d.SidebarOpen = open })
}

func (c *Controller) ToggleSidebar(ctx context.Context) error {
	return c.update(ctx, func(d *document) { d.SidebarOpen = !d.SidebarOpen })
}

// update applies fn in memory, then persists. A storage failure is returned
// but the in-memory state keeps the change.
func (c *Controller) update(ctx context.Context, fn func(*document)) error {
	c.mu.Lock()
	fn(&c.doc)
	snapshot := c.doc
	c.mu.Unlock()

	if err := kv.SetJSON(ctx, c.store, c.key, snapshot); err != nil {
		c.log.Error("failed to persist session", "key", c.key, "error", err)
		return err
	}
	return nil
}

func copyUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Email != nil {
		e := *u.Email
		cp.Email = &e
	}
	return &cp
}
