package otp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/validation"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	service     Service
	logger      *slog.Logger
	exposeCodes bool
}

// NewHandler creates the OTP handler. With exposeCodes set, issued codes are
// echoed in the send response; only development servers do this.
func NewHandler(service Service, logger *slog.Logger, exposeCodes bool) *Handler {
	return &Handler{service: service, logger: logger, exposeCodes: exposeCodes}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "otp-send",
		Method:      http.MethodPost,
		Path:        "/otp/send",
		Summary:     "Issue a verification code",
		Tags:        []string{"otp"},
	}, h.SendHandler)

	huma.Register(api, huma.Operation{
		OperationID: "otp-verify",
		Method:      http.MethodPost,
		Path:        "/otp/verify",
		Summary:     "Verify a code",
		Tags:        []string{"otp"},
	}, h.VerifyHandler)
}

// --- DTOs ---

type SendRequest struct {
	Body struct {
		Phone string `json:"phone" validate:"required,min=8,max=20"`
	}
}

type SendResponse struct {
	Body struct {
		Sent bool   `json:"sent"`
		Code string `json:"code,omitempty" doc:"Issued code, development only"`
	}
}

type VerifyRequest struct {
	Body struct {
		Phone string `json:"phone" validate:"required,min=8,max=20"`
		Code  string `json:"code" validate:"required,len=6,digits"`
	}
}

type VerifyResponse struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

// --- Handlers ---

func (h *Handler) SendHandler(ctx context.Context, input *SendRequest) (*SendResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	code, err := h.service.Issue(ctx, input.Body.Phone)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SendResponse{}
	resp.Body.Sent = true
	if h.exposeCodes {
		resp.Body.Code = code
	}
	return resp, nil
}

func (h *Handler) VerifyHandler(ctx context.Context, input *VerifyRequest) (*VerifyResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.Verify(ctx, input.Body.Phone, input.Body.Code); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &VerifyResponse{}
	resp.Body.OK = true
	return resp, nil
}
