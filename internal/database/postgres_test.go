package database

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_key"}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup), "users_phone_number_key"))
	assert.False(t, IsUniqueViolation(dup, "other_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom"), ""))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations, MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	b, err := fs.ReadFile(migrations, MigrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "users_phone_number_key")
}

func TestNewPostgresPool_RequiresURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "", PoolOptions{})
	require.Error(t, err)
}

func TestNewPostgresPool_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPostgresPool(ctx, "postgres://u:p@127.0.0.1:1/db?connect_timeout=1", PoolOptions{MaxRetries: 3, RetryDelay: time.Hour})
	require.Error(t, err)
}
