package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"platewise/internal/platform/ratelimit"
)

func limited(t *testing.T, l *ratelimit.Limiter, class ratelimit.Class) http.Handler {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return ClientKey()(RateLimit(l, class)(ok))
}

func TestRateLimit_PassAndDeny(t *testing.T) {
	l := ratelimit.New(ratelimit.WithBudget(ratelimit.ClassText, ratelimit.Budget{Max: 2, Window: time.Minute}))
	h := limited(t, l, ratelimit.ClassText)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/estimate", nil)
		req.RemoteAddr = "198.51.100.1:1000"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/estimate", nil)
	req.RemoteAddr = "198.51.100.1:1000"
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After header missing")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining header = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}

	var body struct {
		StatusCode int    `json:"status_code"`
		RetryAfter int    `json:"retry_after_seconds"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json body: %v", err)
	}
	if body.StatusCode != 429 || body.RetryAfter < 1 || body.Error == "" {
		t.Fatalf("unexpected wire body: %+v", body)
	}
}

func TestRateLimit_HeaderIdentityWins(t *testing.T) {
	l := ratelimit.New(ratelimit.WithBudget(ratelimit.ClassText, ratelimit.Budget{Max: 1, Window: time.Minute}))
	h := limited(t, l, ratelimit.ClassText)

	// same IP, different declared devices: both first requests pass
	for _, id := range []string{"device-a", "device-b"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/estimate", nil)
		req.RemoteAddr = "198.51.100.1:1000"
		req.Header.Set("X-Client-ID", id)
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("device %s status = %d", id, rec.Code)
		}
	}
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	h := limited(t, nil, ratelimit.ClassPhoto)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/photo", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
