package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/delordemm1/go-otp-chat/internal/config"
	"github.com/delordemm1/go-otp-chat/internal/kv"
	"github.com/delordemm1/go-otp-chat/internal/modules/auth"
	"github.com/delordemm1/go-otp-chat/internal/modules/chat"
	"github.com/delordemm1/go-otp-chat/internal/modules/country"
	"github.com/delordemm1/go-otp-chat/internal/modules/otp"
	"github.com/delordemm1/go-otp-chat/internal/modules/user"
	"github.com/delordemm1/go-otp-chat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{JWTSecret: "test-secret"}
	cfg.Server.AppName = "Chatter"
	cfg.Chat.PageSize = chat.DefaultPageSize
	cfg.OTP.ExposeCodes = true

	users := user.NewService(&user.Config{Repo: user.NewMemoryRepository(), Logger: log, Config: cfg})
	codes := otp.NewService(&otp.Config{Ledger: otp.NewMemoryLedger(otp.Options{}), Logger: log})
	sessions := session.NewManager(kv.NewMemory(), log)
	flows := auth.NewRegistry(auth.RegistryConfig{
		Deps: auth.Deps{
			Users:       users,
			OTP:         codes,
			Countries:   country.DefaultStatic,
			Logger:      log,
			ExposeCodes: true,
		},
		Sessions: sessions,
	})
	t.Cleanup(flows.Close)

	router := New(Deps{
		Config:    cfg,
		Logger:    log,
		Users:     users,
		OTP:       codes,
		Countries: country.DefaultStatic,
		Flows:     flows,
		Sessions:  sessions,
		Tokens:    session.NewTokens(cfg.JWTSecret, time.Hour, clock.Real{}),
		Rooms:     chat.NewDirectories(clock.Real{}),
		History:   chat.NewMockHistory(clock.Real{}, 0),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestProtectedRoutesNeedAToken(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/rooms", "/session", "/rooms/1/messages"} {
		resp, body := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "ErrUnauthorized", body["code"], path)
	}
}

func TestSignupThenChat(t *testing.T) {
	srv := newTestServer(t)

	resp, view := do(t, srv, http.MethodPost, "/flows", "", map[string]any{"mode": "signup"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, view)
	id, _ := view["flowId"].(string)
	require.NotEmpty(t, id)

	resp, view = do(t, srv, http.MethodPost, "/flows/"+id+"/phone", "",
		map[string]any{"countryCode": "+1", "phoneNumber": "5551234567"})
	require.Equal(t, http.StatusOK, resp.StatusCode, view)
	code, _ := view["debugCode"].(string)
	require.Len(t, code, 6)

	resp, view = do(t, srv, http.MethodPost, "/flows/"+id+"/otp", "", map[string]any{"otp": code})
	require.Equal(t, http.StatusOK, resp.StatusCode, view)
	assert.Equal(t, "profile", view["step"])

	resp, view = do(t, srv, http.MethodPost, "/flows/"+id+"/profile", "",
		map[string]any{"firstName": "Ada", "lastName": "Lovelace"})
	require.Equal(t, http.StatusOK, resp.StatusCode, view)
	assert.Equal(t, "complete", view["step"])
	token, _ := view["token"].(string)
	require.NotEmpty(t, token)

	resp, body := do(t, srv, http.MethodGet, "/rooms", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	rooms, _ := body["rooms"].([]any)
	assert.Len(t, rooms, 4)

	resp, body = do(t, srv, http.MethodGet, "/rooms/4/messages?page=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 100, body["total"])

	resp, _ = do(t, srv, http.MethodPost, "/session/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/rooms", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "logged-out sessions reject their tokens")
}
