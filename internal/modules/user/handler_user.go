package user

import (
	"context"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/validation"
)

// --- DTOs ---

type ExistsRequest struct {
	Phone string `query:"phone" json:"phone" validate:"required"`
}

type ExistsResponse struct {
	Body struct {
		Exists bool `json:"exists"`
	}
}

type CreateRequest struct {
	Body struct {
		PhoneNumber string `json:"phoneNumber" validate:"required,min=8,max=20"`
		FirstName   string `json:"firstName" validate:"required,min=2,max=50,letters"`
		LastName    string `json:"lastName" validate:"required,min=2,max=50,letters"`
		Email       string `json:"email,omitempty" validate:"omitempty,email"`
	}
}

// Record is the public shape of a user.
type Record struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       *string   `json:"email,omitempty"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateResponse struct {
	Body Record
}

// ToRecord maps a domain user to its public shape.
func ToRecord(u *User) Record {
	return Record{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

// --- Handlers ---

func (h *Handler) ExistsHandler(ctx context.Context, input *ExistsRequest) (*ExistsResponse, error) {
	if verr := validation.ValidateStruct(input); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	exists, err := h.service.Exists(ctx, input.Phone)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ExistsResponse{}
	resp.Body.Exists = exists
	return resp, nil
}

func (h *Handler) CreateHandler(ctx context.Context, input *CreateRequest) (*CreateResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	u, err := h.service.Create(ctx, CreateInput{
		PhoneNumber: input.Body.PhoneNumber,
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
		Email:       input.Body.Email,
	})
	if err != nil {
		h.logger.Warn("user creation failed", "phone", input.Body.PhoneNumber, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &CreateResponse{Body: ToRecord(u)}, nil
}
