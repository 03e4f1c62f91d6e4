package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/ethical-choice/api/internal/config"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

type stubCache struct{ err error }

func (c stubCache) Ping(context.Context) error { return c.err }

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			Environment:     "test",
			APIPrefix:       "/api",
			ShutdownTimeout: time.Second,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxAge: 300},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestHealthOK(t *testing.T) {
	srv := New(testConfig(), Dependencies{Database: stubPinger{}, Cache: stubCache{}}, logging.Nop())

	for _, path := range []string{"/health", "/api/health"} {
		rec, body := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, body.Success)

		var report healthReport
		require.NoError(t, json.Unmarshal(body.Data, &report))
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, "ok", report.Database)
	}
}

func TestHealthDegraded(t *testing.T) {
	srv := New(testConfig(), Dependencies{
		Database: stubPinger{err: errors.New("no primary")},
		Cache:    stubCache{},
	}, logging.Nop())

	rec, body := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusServiceUnavailable, body.StatusCode)

	var report healthReport
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "unavailable", report.Database)
	assert.Equal(t, "ok", report.Cache)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	srv := New(testConfig(), Dependencies{}, logging.Nop())

	rec, body := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Route not found", body.Error)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(testConfig(), Dependencies{}, logging.Nop())
	do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, WindowMinutes: 1, MaxRequests: 2}
	srv := New(cfg, Dependencies{}, logging.Nop())

	for i := 0; i < 2; i++ {
		rec, _ := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)

	// The root health probe sits outside the limited prefix.
	rec, _ = do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := New(testConfig(), Dependencies{}, logging.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := New(testConfig(), Dependencies{}, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, "http-server", srv.String())
}
