package user

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "demo.json")
	store, err := kv.NewFile(path)
	require.NoError(t, err)

	repo := NewKVRepository(store, "users:")
	email := "ada@example.com"
	u := &User{
		ID:          "u-1",
		PhoneNumber: "+15551234567",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       &email,
		IsVerified:  true,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Insert(ctx, u))
	require.ErrorIs(t, repo.Insert(ctx, u), ErrDuplicateUser)

	reopened, err := kv.NewFile(path)
	require.NoError(t, err)
	repo = NewKVRepository(reopened, "users:")

	exists, err := repo.Exists(ctx, "+15551234567")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := repo.FindByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, u, found)

	_, err = repo.FindByPhone(ctx, "+15550000000")
	require.ErrorIs(t, err, ErrNotFound)
}
