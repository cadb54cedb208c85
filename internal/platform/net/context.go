// Package net provides utilities for working with request contexts
package net

import (
	"context"
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyClientKey ctxKey = "client_key"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, clientKey string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if clientKey != "" {
		ctx = context.WithValue(ctx, keyClientKey, clientKey)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// ClientKey returns the rate limit client identity on the context if present
func ClientKey(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientKey).(string); ok {
		return v
	}
	return ""
}

// ClientKeyFromRequest derives the client identity used for rate limiting.
// An explicit X-Client-ID header wins so NAT-shared mobile clients can
// self-identify; otherwise the remote IP (RealIP-rewritten upstream of here)
func ClientKeyFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Client-ID")); v != "" {
		return v
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
