package user

import (
	"context"
	"sync"
)

// memoryRepository keeps users in a map keyed by phone number.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository creates an empty in-memory credential store.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Exists(_ context.Context, phoneNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[phoneNumber]
	return ok, nil
}

func (r *memoryRepository) Insert(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.PhoneNumber]; ok {
		return ErrDuplicateUser
	}
	r.users[u.PhoneNumber] = cloneUser(*u)
	return nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phoneNumber string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[phoneNumber]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneUser(u)
	return &cp, nil
}

func cloneUser(u User) User {
	if u.Email != nil {
		e := *u.Email
		u.Email = &e
	}
	return u
}
