package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"platewise/internal/platform/config"
	phttp "platewise/internal/platform/net/http"
)

func TestNewServer_DefaultsAndMux(t *testing.T) {
	srv := phttp.NewServer(config.New().Prefix("API_")) // no env, should default to :4000
	if srv.Addr() == "" {
		t.Fatalf("expected non-empty addr")
	}
	r := srv.Router()
	if r == nil || r.Mux() == nil {
		t.Fatalf("router or mux is nil")
	}

	// simple route
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("bad response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewServer_PortFromEnv(t *testing.T) {
	t.Setenv("API_PORT", ":5151")

	srv := phttp.NewServer(config.New().Prefix("API_"))
	if srv.Addr() != ":5151" {
		t.Fatalf("expected :5151, got %q", srv.Addr())
	}
}
