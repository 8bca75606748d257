// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/teleport/internal/store"
)

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Put(context.Context, string, string, *State) error { return errBroken }
func (brokenStore) Get(context.Context, string, string) (*State, error) {
	return nil, errBroken
}
func (brokenStore) Delete(context.Context, string, string) error { return errBroken }
func (brokenStore) Close() error { return nil }

type panicStore struct{ brokenStore }

func (panicStore) Get(context.Context, string, string) (*State, error) { panic("boom") }

func serve(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_SaveFetchDelete(t *testing.T) {
	st := NewMemoryStore()
	h := NewHandler(st, Config{})

	rr := serve(t, h, http.MethodGet, "/userId/u1/videoId/v1/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	rr = serve(t, h, http.MethodPost, "/userId/u1/videoId/v1/position/85.25", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(t, h, http.MethodGet, "/userId/u1/videoId/v1/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "85.25", rr.Body.String())

	rr = serve(t, h, http.MethodGet, "/userId/u1/videoId/v1", nil)
	assert.Equal(t, "85.25", rr.Body.String(), "trailing slash is optional")

	rr = serve(t, h, http.MethodDelete, "/userId/u1/videoId/v1/", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, st.Len())

	rr = serve(t, h, http.MethodDelete, "/userId/u1/videoId/v1/", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "delete of absent record")
}

func TestHandler_RejectsBadPositions(t *testing.T) {
	h := NewHandler(NewMemoryStore(), Config{})
	for _, pos := range []string{"abc", "-1", "NaN", "Inf", "1e400"} {
		rr := serve(t, h, http.MethodPost, "/userId/u/videoId/v/position/"+pos, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, pos)
	}
}

func TestHandler_StoreFailureIs503(t *testing.T) {
	h := NewHandler(brokenStore{}, Config{})
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/userId/u/videoId/v/"},
		{http.MethodPost, "/userId/u/videoId/v/position/1"},
		{http.MethodDelete, "/userId/u/videoId/v/"},
	} {
		rr := serve(t, h, tc.method, tc.target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, tc.method)
	}
}

func TestHandler_RequestID(t *testing.T) {
	h := NewHandler(NewMemoryStore(), Config{})

	rr := serve(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Len(t, rr.Header().Get(HeaderRequestID), 36)

	rr = serve(t, h, http.MethodGet, "/healthz", http.Header{HeaderRequestID: {"req-42"}})
	assert.Equal(t, "req-42", rr.Header().Get(HeaderRequestID))
}

func TestHandler_CORS(t *testing.T) {
	h := NewHandler(NewMemoryStore(), Config{CORSOrigin: "https://player.example"})

	rr := serve(t, h, http.MethodOptions, "/userId/u/videoId/v/", http.Header{"Origin": {"https://player.example"}})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://player.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rr = serve(t, h, http.MethodGet, "/userId/u/videoId/v/", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	open := NewHandler(NewMemoryStore(), Config{})
	rr = serve(t, open, http.MethodGet, "/userId/u/videoId/v/", http.Header{"Origin": {"https://any.example"}})
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_RateLimit(t *testing.T) {
	h := NewHandler(NewMemoryStore(), Config{RateLimit: 2, RateWindow: time.Minute})

	for i := 0; i < 2; i++ {
		rr := serve(t, h, http.MethodGet, "/userId/u/videoId/v/", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := serve(t, h, http.MethodGet, "/userId/u/videoId/v/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	rr = serve(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "probes are not limited")
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	h := NewHandler(NewMemoryStore(), Config{})
	serve(t, h, http.MethodGet, "/userId/u/videoId/v/", nil)

	rr := serve(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "teleport_positionstore_requests_total")
}

func TestHandler_PanicRecovered(t *testing.T) {
	h := NewHandler(panicStore{}, Config{})
	rr := serve(t, h, http.MethodGet, "/userId/u/videoId/v/", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// The store client and the server agree on escaping, including identifiers
// that contain path separators and percent signs.
func TestHandler_StoreClientRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	srv := httptest.NewServer(NewHandler(st, Config{}))
	defer srv.Close()

	client := store.New(srv.URL, store.WithTimeout(2*time.Second))
	ctx := context.Background()

	cases := [][2]string{
		{"alice", "movie-1"},
		{"user/with/slashes", "video 2"},
		{"100%", "ünïcode"},
	}
	for _, c := range cases {
		require.NoError(t, client.Save(ctx, c[0], c[1], 42.5), c)

		got, err := st.Get(ctx, c[0], c[1])
		require.NoError(t, err)
		require.NotNil(t, got, c)
		assert.Equal(t, 42.5, got.PosSeconds)

		body, err := client.Fetch(ctx, c[0], c[1])
		require.NoError(t, err)
		assert.Equal(t, "42.5", body)

		require.NoError(t, client.Delete(ctx, c[0], c[1]))
		body, err = client.Fetch(ctx, c[0], c[1])
		require.NoError(t, err)
		assert.Equal(t, "0", body)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewMemoryStore(), Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { done <- s.Serve(ctx, ln) }()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+ln.Addr().String()+"/healthz", nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Timeout: 2 * time.Second}).Do(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", strings.TrimSpace(string(b)))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
