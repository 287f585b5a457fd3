package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx,
// so repositories can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolOptions controls connection retries.
type PoolOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewPostgresPool creates a pgx pool and waits until the database answers a ping.
// Connection attempts are retried, which helps when the database container is
// still starting.
func NewPostgresPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres: DATABASE_URL is not set")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}

	var lastErr error
	for i := 0; i < opts.MaxRetries; i++ {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				log.Println("✅ Successfully connected to PostgreSQL database")
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		log.Printf("... could not connect to database (attempt %d/%d), retrying in %v: %v", i+1, opts.MaxRetries, opts.RetryDelay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	return nil, fmt.Errorf("postgres: failed after %d attempts: %w", opts.MaxRetries, lastErr)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505),
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
