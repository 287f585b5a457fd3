package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/contextx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	fc := clock.NewFake(start)
	_, api := humatest.New(t)
	// Stands in for the JWT middleware: the caller names itself in X-User.
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		if uid := ctx.Header("X-User"); uid != "" {
			ctx = huma.WithContext(ctx, contextx.WithIdentity(ctx.Context(), uid, "sess-"+uid))
		}
		next(ctx)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	NewHandler(NewDirectories(fc), NewMockHistory(fc, 0), 0, logger).RegisterRoutes(api)
	return api
}

type roomsBody struct {
	Rooms []Room `json:"rooms"`
}

type roomBody struct {
	Room    Room   `json:"room"`
	Message string `json:"message"`
}

type pageBody struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"hasMore"`
	Page     int       `json:"page"`
}

func decodeInto[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestHandler_RequiresIdentity(t *testing.T) {
	api := newAPI(t)
	resp := api.Get("/rooms")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestHandler_ListAndSearch(t *testing.T) {
	api := newAPI(t)

	resp := api.Get("/rooms", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Len(t, decodeInto[roomsBody](t, resp.Body.Bytes()).Rooms, 4)

	resp = api.Get("/rooms?search=random", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	rooms := decodeInto[roomsBody](t, resp.Body.Bytes()).Rooms
	require.Len(t, rooms, 1)
	assert.Equal(t, "3", rooms[0].ID)
}

func TestHandler_CreateAndDelete(t *testing.T) {
	api := newAPI(t)

	resp := api.Post("/rooms", "X-User: u-1", map[string]any{"name": "Book Club"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeInto[roomBody](t, resp.Body.Bytes())
	assert.Equal(t, "No description", created.Room.Description)
	assert.Equal(t, "u-1", created.Room.CreatedBy)
	assert.Equal(t, CreatedMessage("Book Club"), created.Message)

	resp = api.Get("/rooms", "X-User: u-1")
	assert.Len(t, decodeInto[roomsBody](t, resp.Body.Bytes()).Rooms, 5)
	resp = api.Get("/rooms", "X-User: u-2")
	assert.Len(t, decodeInto[roomsBody](t, resp.Body.Bytes()).Rooms, 4, "directories are per user")

	resp = api.Delete("/rooms/"+created.Room.ID, "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, DeletedMessage("Book Club"), decodeInto[roomBody](t, resp.Body.Bytes()).Message)
}

func TestHandler_CreateRejectsBlankName(t *testing.T) {
	api := newAPI(t)

	resp := api.Post("/rooms", "X-User: u-1", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = api.Post("/rooms", "X-User: u-1", map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Room name is required")
}

func TestHandler_DeleteErrors(t *testing.T) {
	api := newAPI(t)

	resp := api.Delete("/rooms/2", "X-User: u-1")
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "You can only delete rooms you created")

	resp = api.Delete("/rooms/404", "X-User: u-1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_MessagePages(t *testing.T) {
	api := newAPI(t)

	resp := api.Get("/rooms/4/messages", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	p := decodeInto[pageBody](t, resp.Body.Bytes())
	assert.Len(t, p.Messages, 20)
	assert.Equal(t, 100, p.Total)
	assert.True(t, p.HasMore)
	assert.Equal(t, "msg-100", p.Messages[19].ID)

	resp = api.Get("/rooms/4/messages?page=4", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	p = decodeInto[pageBody](t, resp.Body.Bytes())
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, "msg-1", p.Messages[0].ID)
	assert.False(t, p.HasMore)

	resp = api.Get("/rooms/4/messages?page=5", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, decodeInto[pageBody](t, resp.Body.Bytes()).Messages)

	resp = api.Get("/rooms/9/messages", "X-User: u-1")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_MessagePagesOutOfRange(t *testing.T) {
	api := newAPI(t)

	resp := api.Get("/rooms/1/messages?page=100000", "X-User: u-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	p := decodeInto[pageBody](t, resp.Body.Bytes())
	assert.Empty(t, p.Messages)
	assert.Equal(t, 50, p.Total)

	resp = api.Get("/rooms/1/messages?page=922337203685477580", "X-User: u-1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	p2 := SlicePage(generate("1", 50, start), 922337203685477580, 20)
	assert.Empty(t, p2.Messages)
	assert.False(t, p2.HasMore)
}
