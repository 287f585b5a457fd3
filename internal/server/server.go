package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/delordemm1/go-otp-chat/internal/config"
	authmw "github.com/delordemm1/go-otp-chat/internal/middleware"
	"github.com/delordemm1/go-otp-chat/internal/modules/auth"
	"github.com/delordemm1/go-otp-chat/internal/modules/chat"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps holds everything the HTTP surface is assembled from.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Users     user.Service
	OTP       otp.Service
	Countries country.Provider
	Flows     *auth.Registry
	Sessions  *session.Manager
	Tokens    *session.Tokens
	Rooms     *chat.Directories
	History   chat.HistorySource
}

type healthResponse struct {
	Body struct {
		Status string `json:"status"`
		Flows  int    `json:"flows"`
	}
}

// New creates the router with every module's routes registered.
func New(d Deps) chi.Router {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	apiConfig := huma.DefaultConfig(d.Config.Server.AppName+" API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)
	api.UseMiddleware(authmw.JWTAuthHuma(d.Tokens, d.Sessions, d.Logger))

	user.NewHandler(d.Users, d.Logger).RegisterRoutes(api)
	otp.NewHandler(d.OTP, d.Logger, d.Config.OTP.ExposeCodes).RegisterRoutes(api)
	country.NewHandler(d.Countries, d.Logger).RegisterRoutes(api)
	auth.NewHandler(d.Flows, d.Tokens, d.Logger).RegisterRoutes(api)
	session.NewHandler(d.Sessions, d.Logger).RegisterRoutes(api)
	chat.NewHandler(d.Rooms, d.History, d.Config.Chat.PageSize, d.Logger).RegisterRoutes(api)

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*healthResponse, error) {
		resp := &healthResponse{}
		resp.Body.Status = "ok"
		resp.Body.Flows = d.Flows.Len()
		return resp, nil
	})

	return router
}
