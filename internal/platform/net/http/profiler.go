// Profiler support: pprof endpoints, off unless explicitly enabled
package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler exposes pprof under prefix (typically "/debug")
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	// the seam has no Mount, so strip the prefix before the profiler mux
	h := stdhttp.StripPrefix(prefix, mw.Profiler())

	// cover the prefix itself and everything below it
	r.Get(prefix, func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		h.ServeHTTP(w, req)
	})
	r.Get(prefix+"/*", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		h.ServeHTTP(w, req)
	})
}
