package middleware

import (
	stdjson "encoding/json"
	stdhttp "net/http"
	"runtime/debug"
	"strings"

	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/logger"
	pnet "platewise/internal/platform/net"
)

type panicWire struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// RecoverJSON converts panics into a JSON 500 and logs the stack with the
// request id. Clients always get an envelope, never a blank connection reset
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			reqID := pnet.RequestID(r.Context())

			// indent continuation lines so the stack stays one log record
			stack := strings.Join(strings.Split(string(debug.Stack()), "\n"), "\n\t")

			log := logger.C(r.Context())
			if log == nil {
				log = logger.Named("http")
			}
			log.Error().
				Str("request_id", reqID).
				Interface("panic", v).
				Msgf("panic recovered\n%s", stack)

			// mirror id in response header
			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}

			body := panicWire{
				StatusCode: stdhttp.StatusInternalServerError,
				Status:     stdhttp.StatusText(stdhttp.StatusInternalServerError),
				Error:      perr.Root(perr.PanicErrf("panic recovered")).Error(),
				RequestID:  reqID,
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(stdhttp.StatusInternalServerError)
			_ = stdjson.NewEncoder(w).Encode(body)
		}()
		next.ServeHTTP(w, r)
	})
}
