package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"platewise/internal/platform/net/middleware"
	"platewise/internal/platform/ratelimit"
)

// CommonStack returns a baseline per module middleware slice.
// corsOrigins restricts cross-origin callers; empty means allow any.
// Compose with your rate limit middleware as needed in main
func CommonStack(corsOrigins ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.ClientKey(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability; photo identification regularly takes seconds, so the
		// slow mark sits well above a normal cascade round trip
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 5 * time.Second}),

		// cross-origin; X-Client-ID lets NAT-shared clients self-identify
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: corsOrigins,
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Client-ID"},
		}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(60 * time.Second),
	}
}

// RateLimit wires the sliding window limiter for one endpoint class
func RateLimit(l *ratelimit.Limiter, class ratelimit.Class) func(http.Handler) http.Handler {
	return middleware.RateLimit(l, class)
}
