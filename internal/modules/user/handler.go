package user

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Handler holds the dependencies for the user module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the user module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the credential store endpoints.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "user-exists",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "Check whether a phone number is registered",
		Tags:        []string{"users"},
	}, h.ExistsHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "user-create",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Register a user",
		Tags:          []string{"users"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateHandler)
}
