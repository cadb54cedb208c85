package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"platewise/internal/platform/config"
	phttp "platewise/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

// TestServer_RunAndShutdown covers the whole lifecycle: the NewServer option
// hook, Use before routes, Group, the verb adapters, and Run/Shutdown with
// ErrServerClosed mapped to nil
func TestServer_RunAndShutdown(t *testing.T) {
	// bind to an ephemeral local port to avoid collisions and permissions
	t.Setenv("API_PORT", "127.0.0.1:0")

	// option hook proves opts(...) are invoked; DO NOT add routes here
	optCalled := false
	srv := phttp.NewServer(config.New().Prefix("API_"), func(m *chi.Mux) {
		optCalled = true
	})
	if !optCalled {
		t.Fatalf("expected NewServer option to be called")
	}

	r := srv.Router()

	// middleware via Router.Use - must be defined BEFORE any routes
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Resolver", "cascade")
			next.ServeHTTP(w, req)
		})
	})

	// grouped meta routes
	r.Group(func(gr phttp.Router) {
		gr.Get("/meta/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	})

	// verb adapters on one path
	r.Post("/nutrition/resolve", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	r.Put("/nutrition/resolve", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	r.Patch("/nutrition/resolve", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Delete("/nutrition/cache", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	// a simple GET to assert middleware header
	r.Get("/meta/limits", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "limits") })

	// start the server; it will listen on 127.0.0.1:0 (random port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	// give the listener a moment to come up
	time.Sleep(50 * time.Millisecond)

	// hit the mux directly via httptest to unit-test our router plumbing

	recG := httptest.NewRecorder()
	r.Mux().ServeHTTP(recG, httptest.NewRequest("GET", "/meta/health", nil))
	if recG.Code != http.StatusOK || recG.Body.String() != "ok" {
		t.Fatalf("unexpected /meta/health: %d %q", recG.Code, recG.Body.String())
	}

	recMW := httptest.NewRecorder()
	r.Mux().ServeHTTP(recMW, httptest.NewRequest("GET", "/meta/limits", nil))
	if recMW.Header().Get("X-Resolver") != "cascade" {
		t.Fatalf("middleware header missing")
	}

	for _, tc := range []struct {
		verb string
		path string
		want int
	}{
		{"POST", "/nutrition/resolve", http.StatusCreated},
		{"PUT", "/nutrition/resolve", http.StatusAccepted},
		{"PATCH", "/nutrition/resolve", http.StatusNoContent},
		{"DELETE", "/nutrition/cache", http.StatusOK},
	} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(tc.verb, tc.path, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s %s adapter: got %d want %d", tc.verb, tc.path, rec.Code, tc.want)
		}
	}

	if srv.Addr() == "" {
		t.Fatalf("Addr() should not be empty")
	}

	// graceful shutdown; Run() should return nil (ErrServerClosed mapped to nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Shutdown")
	}
}

func TestServer_Run_ReturnsListenError(t *testing.T) {
	t.Setenv("API_PORT", "127.0.0.1:abc") // invalid TCP port; net.Listen will fail
	srv := phttp.NewServer(config.New().Prefix("API_"))

	if err := srv.Run(context.Background()); err == nil {
		t.Fatalf("expected Run to return an error for invalid addr, got nil")
	}
}
