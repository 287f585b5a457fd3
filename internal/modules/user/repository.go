package user

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/go-otp-chat/internal/database"
)

// Repository is the credential store. Implementations must return ErrNotFound
// for missing users and ErrDuplicateUser when the phone number is taken.
type Repository interface {
	Exists(ctx context.Context, phoneNumber string) (bool, error)
	Insert(ctx context.Context, u *User) error
	FindByPhone(ctx context.Context, phoneNumber string) (*User, error)
}

// repository implements Repository on Postgres using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
