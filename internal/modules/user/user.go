package user

import (
	"time"
)

// User is a registered account, keyed by phone number. Records are never
// updated once created.
type User struct {
	ID          string    `db:"id" json:"id"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber"`
	FirstName   string    `db:"first_name" json:"firstName"`
	LastName    string    `db:"last_name" json:"lastName"`
	Email       *string   `db:"email" json:"email,omitempty"`
	IsVerified  bool      `db:"is_verified" json:"isVerified"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CreateInput carries the fields supplied at registration.
type CreateInput struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	Email       string
}

// DisplayName is the name shown to other chat participants.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
