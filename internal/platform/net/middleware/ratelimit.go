package middleware

import (
	stdjson "encoding/json"
	"net/http"
	"strconv"

	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
	pnet "platewise/internal/platform/net"
	"platewise/internal/platform/ratelimit"
)

type limitWire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code"`
	Error      string         `json:"error"`
	RetryAfter int            `json:"retry_after_seconds"`
	RequestID  string         `json:"request_id,omitempty"`
}

// ClientKey derives the rate limit identity for the request and stores it on
// the context so downstream logging and limiting agree on who the caller is
func ClientKey() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := pnet.ClientKeyFromRequest(r)
			ctx := pnet.WithRequest(r.Context(), "", key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit enforces the sliding window budget for one endpoint class.
// Denials return a structured 429 with time-to-reset; requests are never queued
func RateLimit(l *ratelimit.Limiter, class ratelimit.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			client := pnet.ClientKey(r.Context())
			if client == "" {
				client = pnet.ClientKeyFromRequest(r)
			}

			d := l.Allow(ratelimit.Key{Client: client, Class: class})
			if d.Allowed {
				if d.Remaining >= 0 {
					w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				}
				next.ServeHTTP(w, r)
				return
			}

			retry := int(d.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}

			logger.C(r.Context()).Warn().
				Str("client_key", client).
				Str("class", string(class)).
				Int("retry_after_s", retry).
				Msg("rate limit exceeded")

			reqID := pnet.RequestID(r.Context())
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = stdjson.NewEncoder(w).Encode(limitWire{
				StatusCode: http.StatusTooManyRequests,
				Status:     http.StatusText(http.StatusTooManyRequests),
				Code:       perr.ErrorCodeTooManyRequests,
				Error:      "rate limit exceeded, try again later",
				RetryAfter: retry,
				RequestID:  reqID,
			})
		})
	}
}
