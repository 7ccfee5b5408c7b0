package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/server/handlers"
	"github.com/amrewind/rewind/internal/store"
)

type healthyStore struct{}

func (healthyStore) CheckHealth(context.Context) error { return nil }

func (healthyStore) ListEntries(context.Context, int) ([]store.ArtistEntry, error) {
	return nil, nil
}

func (healthyStore) Stats(context.Context) (store.CacheStats, error) {
	return store.CacheStats{}, nil
}

func newTestServer() *Server {
	health := handlers.NewHealthManager("test")
	health.RegisterChecker("store", healthyStore{})

	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Health:  health,
		Cache:   &handlers.CacheAPI{Store: healthyStore{}},
		Version: "test",
	})
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/version", "/api/v1/cache", "/api/v1/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status 200, got %d", path, rec.Code)
		}
	}
}

func TestServerNotFoundEnvelope(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.RequestID == "" {
		t.Fatalf("expected a request ID in the error envelope")
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodDelete, "/health", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected request ID echoed, got %q", got)
	}
}
