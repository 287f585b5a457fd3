package country

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type Handler struct {
	provider Provider
	logger   *slog.Logger
}

func NewHandler(provider Provider, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "countries-list",
		Method:      http.MethodGet,
		Path:        "/countries",
		Summary:     "List dialing codes",
		Description: "Never fails: when the directory is unavailable the list is empty and error carries a message.",
		Tags:        []string{"countries"},
	}, h.ListHandler)
}

type ListResponse struct {
	Body struct {
		Countries []Country `json:"countries"`
		Error     string    `json:"error,omitempty"`
	}
}

func (h *Handler) ListHandler(ctx context.Context, _ *struct{}) (*ListResponse, error) {
	resp := &ListResponse{}
	list, err := h.provider.FetchCountries(ctx)
	if err != nil {
		h.logger.Warn("country directory unavailable", "error", err)
		resp.Body.Countries = []Country{}
		resp.Body.Error = LoadFailedMessage
		return resp, nil
	}
	resp.Body.Countries = list
	return resp, nil
}
