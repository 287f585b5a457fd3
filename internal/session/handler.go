package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-chat/internal/contextx"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/navigation"
	"github.com/delordemm1/go-otp-chat/internal/notification"
	"github.com/delordemm1/go-otp-chat/internal/validation"
)

// BearerAuth is the security requirement for routes behind JWTAuthHuma.
var BearerAuth = []map[string][]string{{"bearer": {}}}

type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "session-get",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Current session and preferences",
		Tags:        []string{"session"},
		Security:    BearerAuth,
	}, h.GetHandler)

	huma.Register(api, huma.Operation{
		OperationID: "session-logout",
		Method:      http.MethodPost,
		Path:        "/session/logout",
		Summary:     "Log out",
		Tags:        []string{"session"},
		Security:    BearerAuth,
	}, h.LogoutHandler)

	huma.Register(api, huma.Operation{
		OperationID: "session-preferences",
		Method:      http.MethodPatch,
		Path:        "/session/preferences",
		Summary:     "Update theme or sidebar state",
		Tags:        []string{"session"},
		Security:    BearerAuth,
	}, h.PreferencesHandler)
}

// --- DTOs ---

type View struct {
	User            *user.Record `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Preferences     Preferences  `json:"preferences"`
}

type ViewResponse struct {
	Body View
}

type LogoutResponse struct {
	Body struct {
		Notifications []notification.Notice `json:"notifications"`
		Redirect      string                `json:"redirect"`
	}
}

type PreferencesRequest struct {
	Body struct {
		Theme       string `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
		SidebarOpen *bool  `json:"sidebarOpen,omitempty"`
	}
}

func toView(c *Controller) View {
	cur := c.Current()
	v := View{IsAuthenticated: cur.IsAuthenticated, Preferences: c.Preferences()}
	if cur.User != nil {
		rec := user.ToRecord(cur.User)
		v.User = &rec
	}
	return v
}

// --- Handlers ---

func (h *Handler) open(ctx context.Context) (*Controller, error) {
	sid, ok := contextx.SessionID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return h.manager.Open(ctx, sid)
}

func (h *Handler) GetHandler(ctx context.Context, _ *struct{}) (*ViewResponse, error) {
	c, err := h.open(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &ViewResponse{Body: toView(c)}, nil
}

func (h *Handler) LogoutHandler(ctx context.Context, _ *struct{}) (*LogoutResponse, error) {
	c, err := h.open(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	var (
		notices notification.Buffer
		nav     navigation.Recorder
	)
	if err := SignOut(ctx, c, &notices, &nav); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	uid, _ := contextx.UserID(ctx)
	h.logger.Info("user logged out", "user_id", uid)

	resp := &LogoutResponse{}
	resp.Body.Notifications = notices.Drain()
	resp.Body.Redirect = nav.Last()
	return resp, nil
}

func (h *Handler) PreferencesHandler(ctx context.Context, input *PreferencesRequest) (*ViewResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	c, err := h.open(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	if input.Body.Theme != "" {
		if err := c.SetTheme(ctx, Theme(input.Body.Theme)); err != nil {
			return nil, httpx.ToProblem(ctx, err)
		}
	}
	if input.Body.SidebarOpen != nil {
		if err := c.SetSidebarOpen(ctx, *input.Body.SidebarOpen); err != nil {
			return nil, httpx.ToProblem(ctx, err)
		}
	}
	return &ViewResponse{Body: toView(c)}, nil
}
