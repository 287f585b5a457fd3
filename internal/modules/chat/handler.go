package chat

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-chat/internal/contextx"
	"github.com/delordemm1/go-otp-chat/internal/httpx"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/delordemm1/go-otp-chat/internal/validation"
)

// Handler serves the rooms directory and room history to logged-in users.
type Handler struct {
	rooms    *Directories
	history  HistorySource
	pageSize int
	logger   *slog.Logger
}

func NewHandler(rooms *Directories, history HistorySource, pageSize int, logger *slog.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Handler{rooms: rooms, history: history, pageSize: pageSize, logger: logger}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "rooms-list",
		Method:      http.MethodGet,
		Path:        "/rooms",
		Summary:     "List chat rooms",
		Tags:        []string{"chat"},
		Security:    session.BearerAuth,
	}, h.ListHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "rooms-create",
		Method:        http.MethodPost,
		Path:          "/rooms",
		Summary:       "Create a chat room",
		Tags:          []string{"chat"},
		Security:      session.BearerAuth,
		DefaultStatus: http.StatusCreated,
	}, h.CreateHandler)

	huma.Register(api, huma.Operation{
		OperationID: "rooms-delete",
		Method:      http.MethodDelete,
		Path:        "/rooms/{id}",
		Summary:     "Delete a chat room you created",
		Tags:        []string{"chat"},
		Security:    session.BearerAuth,
	}, h.DeleteHandler)

	huma.Register(api, huma.Operation{
		OperationID: "rooms-messages",
		Method:      http.MethodGet,
		Path:        "/rooms/{id}/messages",
		Summary:     "Page through a room's history, newest page first",
		Tags:        []string{"chat"},
		Security:    session.BearerAuth,
	}, h.MessagesHandler)
}

// --- DTOs ---

type ListRequest struct {
	Search string `query:"search" doc:"Case-insensitive match on name or description"`
}

type ListResponse struct {
	Body struct {
		Rooms []Room `json:"rooms"`
	}
}

type CreateRequest struct {
	Body struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	}
}

type RoomResponse struct {
	Body struct {
		Room    Room   `json:"room"`
		Message string `json:"message"`
	}
}

type RoomRequest struct {
	ID string `path:"id"`
}

type MessagesRequest struct {
	ID   string `path:"id"`
	Page int    `query:"page" minimum:"0" maximum:"100000" default:"0" doc:"0 is the newest page"`
}

type MessagesResponse struct {
	Body struct {
		Page
		PageNumber int `json:"page"`
	}
}

func (h *Handler) directory(ctx context.Context) (*Directory, string, error) {
	uid, ok := contextx.UserID(ctx)
	if !ok {
		return nil, "", session.ErrUnauthorized
	}
	return h.rooms.For(uid), uid, nil
}

// --- Handlers ---

func (h *Handler) ListHandler(ctx context.Context, input *ListRequest) (*ListResponse, error) {
	dir, _, err := h.directory(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &ListResponse{}
	resp.Body.Rooms = dir.List(input.Search)
	return resp, nil
}

func (h *Handler) CreateHandler(ctx context.Context, input *CreateRequest) (*RoomResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	dir, uid, err := h.directory(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	room, err := dir.Create(uid, input.Body.Name, input.Body.Description)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	h.logger.Info("room created", "room_id", room.ID, "user_id", uid)

	resp := &RoomResponse{}
	resp.Body.Room = room
	resp.Body.Message = CreatedMessage(room.Name)
	return resp, nil
}

func (h *Handler) DeleteHandler(ctx context.Context, input *RoomRequest) (*RoomResponse, error) {
	dir, uid, err := h.directory(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	room, err := dir.Delete(uid, input.ID)
	if err != nil {
		h.logger.Warn("room delete rejected", "room_id", input.ID, "user_id", uid, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	h.logger.Info("room deleted", "room_id", room.ID, "user_id", uid)

	resp := &RoomResponse{}
	resp.Body.Room = room
	resp.Body.Message = DeletedMessage(room.Name)
	return resp, nil
}

func (h *Handler) MessagesHandler(ctx context.Context, input *MessagesRequest) (*MessagesResponse, error) {
	dir, _, err := h.directory(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	if _, err := dir.Get(input.ID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	p, err := h.history.Page(ctx, input.ID, input.Page, h.pageSize)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &MessagesResponse{}
	resp.Body.Page = p
	resp.Body.PageNumber = input.Page
	return resp, nil
}
