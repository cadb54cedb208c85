package http

import (
	"net/http"

	"platewise/internal/platform/net/http/bind"
)

// JSONHandler binds the body to T, runs fn, and wraps the result in the
// standard envelope
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
