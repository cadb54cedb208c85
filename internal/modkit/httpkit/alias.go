// Package httpkit re-exports the platform http surface for modules, so a
// module never imports internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "platewise/internal/platform/net/http"
)

type (
	// Response is the return-style HTTP response
	Response = phttp.Response

	// Handler is the platform handler signature
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// OK wraps data in a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Error builds a response whose status and envelope come from the error
func Error(err error) Response { return phttp.Error(err) }

// Call adapts a bodyless handler into the envelope flow
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) phttp.Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(phttp.Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// Handle adapts a Response-returning function directly
func Handle(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}
