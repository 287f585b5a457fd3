package user

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/go-otp-chat/internal/database"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

const phoneConstraint = "users_phone_number_key"

var userColumns = []string{"id", "phone_number", "first_name", "last_name", "email", "is_verified", "created_at"}

func (r *repository) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	query, args, err := r.psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(squirrel.Eq{"phone_number": phoneNumber}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert stores u. A phone number collision maps to ErrDuplicateUser.
func (r *repository) Insert(ctx context.Context, u *User) error {
	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.PhoneNumber, u.FirstName, u.LastName, u.Email, u.IsVerified, u.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err, phoneConstraint) {
			return ErrDuplicateUser.WithCause(err)
		}
		return err
	}
	return nil
}

func (r *repository) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"phone_number": phoneNumber}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}
