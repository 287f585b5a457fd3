package user

import (
	"context"
	"sync"

	"github.com/delordemm1/go-otp-chat/internal/kv"
)

// kvRepository keeps each user as a JSON document under prefix+phone.
type kvRepository struct {
	mu     sync.Mutex
	store  kv.Store
	prefix string
}

// NewKVRepository creates a credential store on top of a key-value store, so
// accounts live next to the session that refers to them.
func NewKVRepository(store kv.Store, prefix string) Repository {
	return &kvRepository{store: store, prefix: prefix}
}

func (r *kvRepository) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	_, ok, err := r.store.Get(ctx, r.prefix+phoneNumber)
	return ok, err
}

func (r *kvRepository) Insert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exists, err := r.Exists(ctx, u.PhoneNumber)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateUser
	}
	return kv.SetJSON(ctx, r.store, r.prefix+u.PhoneNumber, u)
}

func (r *kvRepository) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	var u User
	ok, err := kv.GetJSON(ctx, r.store, r.prefix+phoneNumber, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
