package country

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const restBody = `[
  {"name":{"common":"Nigeria"},"cca2":"NG","idd":{"root":"+2","suffixes":["34"]},"flag":"🇳🇬"},
  {"name":{"common":"Antarctica"},"cca2":"AQ","idd":{"root":"","suffixes":[]},"flag":""},
  {"name":{"common":"Kosovo"},"cca2":"XK","idd":{"root":"+3","suffixes":[]},"flag":""},
  {"name":{"common":"Canada"},"cca2":"CA","idd":{"root":"+1","suffixes":["204","226"]},"flag":"🇨🇦"}
]`

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, restBody)
	}))
	defer srv.Close()

	list, err := NewHTTPProvider(srv.URL, time.Second).FetchCountries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Country{
		{Code: "CA", Name: "Canada", DialCode: "+1204", Flag: "🇨🇦"},
		{Code: "NG", Name: "Nigeria", DialCode: "+234", Flag: "🇳🇬"},
	}, list)
}

func TestHTTPProvider_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, time.Second).FetchCountries(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = NewHTTPProvider("http://127.0.0.1:1", 200*time.Millisecond).FetchCountries(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) FetchCountries(context.Context) ([]Country, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return []Country{{Code: "GB", Name: "United Kingdom", DialCode: "+44"}}, nil
}

func TestWithCache(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	up := &countingProvider{}
	p := WithCache(up, time.Hour, fc)

	for i := 0; i < 3; i++ {
		list, err := p.FetchCountries(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.EqualValues(t, 1, up.calls.Load())

	fc.Advance(2 * time.Hour)
	_, err := p.FetchCountries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestWithCache_DoesNotCacheFailures(t *testing.T) {
	up := &countingProvider{err: ErrUnavailable}
	p := WithCache(up, time.Hour, nil)

	_, err := p.FetchCountries(context.Background())
	require.Error(t, err)
	_, err = p.FetchCountries(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestWithFallback(t *testing.T) {
	list, err := WithFallback(&countingProvider{err: errors.New("offline")}, DefaultStatic).FetchCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Australia", list[0].Name)
}

func TestHandler_DegradesToEmptyList(t *testing.T) {
	_, api := humatest.New(t)
	NewHandler(&countingProvider{err: ErrUnavailable}, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(api)

	resp := api.Get("/countries")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"countries":[]`)
	assert.Contains(t, resp.Body.String(), LoadFailedMessage)
}
