package fdc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "platewise/internal/platform/errors"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key"})
	c.sleep = func(time.Duration) {}
	return c, srv
}

const riceSearchBody = `{
	"totalHits": 2,
	"foods": [
		{
			"fdcId": 169756,
			"description": "Rice, white, cooked",
			"dataType": "SR Legacy",
			"foodNutrients": [
				{"nutrientId": 1008, "nutrientName": "Energy", "nutrientNumber": "208", "value": 130},
				{"nutrientId": 1003, "nutrientName": "Protein", "nutrientNumber": "203", "value": 2.7}
			]
		},
		{
			"fdcId": 2112385,
			"description": "RICE",
			"dataType": "Branded",
			"brandOwner": "Acme Foods",
			"foodNutrients": []
		}
	]
}`

func TestSearchParsesCandidates(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Fatalf("api_key = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "rice" {
			t.Fatalf("query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(riceSearchBody))
	})

	cands, err := c.Search(context.Background(), "rice", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("candidates = %d", len(cands))
	}
	if cands[0].ID != "169756" || cands[0].DataType != "SR Legacy" {
		t.Fatalf("first candidate = %+v", cands[0])
	}
	if len(cands[0].Nutrients) != 2 || cands[0].Nutrients[0].ID != "208" || cands[0].Nutrients[0].Value != 130 {
		t.Fatalf("nutrients = %+v", cands[0].Nutrients)
	}
	if cands[1].BrandOwner != "Acme Foods" {
		t.Fatalf("second candidate = %+v", cands[1])
	}
}

func TestSearchAuthRejected(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.Search(context.Background(), "rice", 0)
	if !perr.IsCode(err, perr.ErrorCodeUpstreamAuth) {
		t.Fatalf("want upstream auth error, got %v", err)
	}
}

func TestSearchRateLimited(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Search(context.Background(), "rice", 0)
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("want rate limit error, got %v", err)
	}
}

func TestSearchRetriesTransientOnce(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"totalHits":0,"foods":[]}`))
	})

	cands, err := c.Search(context.Background(), "rice", 0)
	if err != nil {
		t.Fatalf("Search after retry: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("candidates = %d", len(cands))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestSearchTransientExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Search(context.Background(), "rice", 0)
	if !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("want upstream error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestSearchBadPayload(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	})
	_, err := c.Search(context.Background(), "rice", 0)
	if !perr.IsCode(err, perr.ErrorCodeParse) {
		t.Fatalf("want parse error, got %v", err)
	}
}

func TestSearchUnconfigured(t *testing.T) {
	c := NewClient(Options{})
	if c.Configured() {
		t.Fatal("keyless client reports configured")
	}
	_, err := c.Search(context.Background(), "rice", 0)
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := NewClient(Options{APIKey: "k"})
	_, err := c.Search(context.Background(), "", 0)
	if !perr.IsCode(err, perr.ErrorCodeInput) {
		t.Fatalf("want input error, got %v", err)
	}
}
