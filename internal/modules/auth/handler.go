package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/session"
)

// Handler exposes hosted flows over HTTP. Every event answers with the
// resulting flow view; a completed view carries the bearer token.
type Handler struct {
	flows  *Registry
	tokens *session.Tokens
	logger *slog.Logger
}

func NewHandler(flows *Registry, tokens *session.Tokens, logger *slog.Logger) *Handler {
	return &Handler{flows: flows, tokens: tokens, logger: logger}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "flow-start",
		Method:        http.MethodPost,
		Path:          "/flows",
		Summary:       "Start a login or signup flow",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.StartHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-get",
		Method:      http.MethodGet,
		Path:        "/flows/{id}",
		Summary:     "Current flow state",
		Tags:        []string{"auth"},
	}, h.GetHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-phone",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/phone",
		Summary:     "Submit the phone number and send a code",
		Tags:        []string{"auth"},
	}, h.PhoneHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-otp",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/otp",
		Summary:     "Submit the verification code",
		Tags:        []string{"auth"},
	}, h.OTPHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-resend",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/resend",
		Summary:     "Resend the verification code once the cooldown is over",
		Tags:        []string{"auth"},
	}, h.ResendHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-back",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/back",
		Summary:     "Go back one step",
		Tags:        []string{"auth"},
	}, h.BackHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-profile",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/profile",
		Summary:     "Complete signup with a profile",
		Tags:        []string{"auth"},
	}, h.ProfileHandler)

	huma.Register(api, huma.Operation{
		OperationID: "flow-reset",
		Method:      http.MethodPost,
		Path:        "/flows/{id}/reset",
		Summary:     "Abandon the flow and return to the phone step",
		Tags:        []string{"auth"},
	}, h.ResetHandler)
}

// --- DTOs ---

type View struct {
	FlowID         string                `json:"flowId"`
	Mode           Mode                  `json:"mode" enum:"login,signup"`
	Step           Step                  `json:"step" enum:"phone,otp,profile,complete"`
	PhoneNumber    string                `json:"phoneNumber,omitempty"`
	CountryCode    string                `json:"countryCode,omitempty"`
	ResendCooldown int                   `json:"resendCooldown" doc:"Seconds until a resend is allowed"`
	ResendRequired bool                  `json:"resendRequired"`
	Loading        Loading               `json:"loading"`
	Profile        *Profile              `json:"profile,omitempty"`
	User           *user.Record          `json:"user,omitempty"`
	Countries      []country.Country     `json:"countries,omitempty"`
	Notifications  []notification.Notice `json:"notifications"`
	Redirect       string                `json:"redirect,omitempty"`
	Token          string                `json:"token,omitempty"`
	DebugCode      string                `json:"debugCode,omitempty" doc:"Issued code, development only"`
}

type ViewResponse struct {
	Body View
}

type StartRequest struct {
	Body struct {
		Mode     string `json:"mode" enum:"login,signup"`
		Redirect string `json:"redirect,omitempty" doc:"Path to open after login"`
	}
}

type FlowRequest struct {
	ID string `path:"id"`
}

type PhoneRequest struct {
	ID   string `path:"id"`
	Body PhoneInput
}

type OTPRequest struct {
	ID   string `path:"id"`
	Body OTPInput
}

type ProfileRequest struct {
	ID   string `path:"id"`
	Body ProfileInput
}

func (h *Handler) view(e *Entry) (View, error) {
	s := e.Flow.State()
	v := View{
		FlowID:         e.Flow.ID(),
		Mode:           s.Mode,
		Step:           s.Step,
		PhoneNumber:    s.PhoneNumber,
		CountryCode:    s.CountryCode,
		ResendCooldown: s.ResendCooldown,
		ResendRequired: s.ResendRequired,
		Loading:        s.Loading,
		Notifications:  e.Notices(),
		Redirect:       e.Redirect(),
		DebugCode:      s.DebugCode,
	}
	if s.Profile != (Profile{}) {
		p := s.Profile
		v.Profile = &p
	}
	if s.Step == StepComplete && s.User != nil {
		rec := user.ToRecord(s.User)
		v.User = &rec
		token, err := h.tokens.Issue(s.User.ID, e.SessionID)
		if err != nil {
			return View{}, err
		}
		v.Token = token
	}
	return v, nil
}

func (h *Handler) respond(ctx context.Context, e *Entry, err error) (*ViewResponse, error) {
	if err != nil {
		e.Notices()
		return nil, httpx.ToProblem(ctx, err)
	}
	v, err := h.view(e)
	if err != nil {
		h.logger.Error("token issue failed", "flow_id", e.Flow.ID(), "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return &ViewResponse{Body: v}, nil
}

// --- Handlers ---

func (h *Handler) StartHandler(ctx context.Context, input *StartRequest) (*ViewResponse, error) {
	e, err := h.flows.Start(ctx, Mode(input.Body.Mode), input.Body.Redirect)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	countries := e.Flow.LoadCountries(ctx)
	resp, err := h.respond(ctx, e, nil)
	if err != nil {
		return nil, err
	}
	resp.Body.Countries = countries
	return resp, nil
}

func (h *Handler) GetHandler(ctx context.Context, input *FlowRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, nil)
}

func (h *Handler) PhoneHandler(ctx context.Context, input *PhoneRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, e.Flow.SubmitPhone(ctx, input.Body))
}

func (h *Handler) OTPHandler(ctx context.Context, input *OTPRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, e.Flow.SubmitOTP(ctx, input.Body))
}

func (h *Handler) ResendHandler(ctx context.Context, input *FlowRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, e.Flow.Resend(ctx))
}

func (h *Handler) BackHandler(ctx context.Context, input *FlowRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, e.Flow.Back(ctx))
}

func (h *Handler) ProfileHandler(ctx context.Context, input *ProfileRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.respond(ctx, e, e.Flow.SubmitProfile(ctx, input.Body))
}

func (h *Handler) ResetHandler(ctx context.Context, input *FlowRequest) (*ViewResponse, error) {
	e, err := h.flows.Get(input.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	e.Flow.Reset()
	return h.respond(ctx, e, nil)
}
