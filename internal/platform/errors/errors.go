// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode defines supported error codes used across services
// Values are stable for wire compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeInput is for missing, empty, or oversized request input
	ErrorCodeInput

	// ErrorCodeValidation is for validation failures (input data)
	ErrorCodeValidation

	// ErrorCodeJSON is for JSON parsing/validation errors
	ErrorCodeJSON

	// ErrorCodeConfig is for missing server credentials or bad operator config
	ErrorCodeConfig

	// ErrorCodeUpstream is for non-2xx or transport failures from upstream services
	ErrorCodeUpstream

	// ErrorCodeUpstreamAuth is for credential rejections by an upstream service
	ErrorCodeUpstreamAuth

	// ErrorCodeTooManyRequests is for rate limiting, ours or an upstream's
	ErrorCodeTooManyRequests

	// ErrorCodeTimeout is for upstream deadline expiry
	ErrorCodeTimeout

	// ErrorCodeParse is for upstream content that could not be parsed into the expected structure
	ErrorCodeParse

	// ErrorCodeRealism is for resolved records that stayed implausible after correction
	ErrorCodeRealism

	// ErrorCodeNotFound is for missing resources, including "no nutrition data"
	ErrorCodeNotFound
)

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInput, ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeRealism:
		return http.StatusUnprocessableEntity
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeUpstreamAuth:
		return http.StatusUnauthorized
	case ErrorCodeUpstream, ErrorCodeParse:
		return http.StatusBadGateway
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeConfig, ErrorCodePanic, ErrorCodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field is optional (for validation)
// issues carries realism rule violations; retryAfter carries rate limit reset seconds
// orig is the wrapped cause
type Error struct {
	orig       error
	msg        string
	code       ErrorCode
	field      string
	issues     []string
	retryAfter int
}

// Wire is the JSON-serializable form returned by the API
type Wire struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitempty"`
	Issues     []string  `json:"issues,omitempty"`
	RetryAfter int       `json:"retry_after_seconds,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Issues returns attached realism violations, if any
func (e *Error) Issues() []string { return e.issues }

// RetryAfter returns the seconds until a rate limit window resets, if set
func (e *Error) RetryAfter() int { return e.retryAfter }

// ToWire converts an *Error to a Wire payload
func (e *Error) ToWire() Wire {
	return Wire{Code: e.code, Message: e.msg, Field: e.field, Issues: e.issues, RetryAfter: e.retryAfter}
}

// WireFrom converts any error into a Wire payload with best-effort mapping
// If err is nil, returns the zero-value Wire (no error)
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Recoverable reports whether the resolution cascade may advance past err to
// its next strategy. Upstream and parse failures are recoverable locally;
// input and config errors are reported immediately
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeUpstream, ErrorCodeUpstreamAuth, ErrorCodeParse,
		ErrorCodeTooManyRequests, ErrorCodeTimeout, ErrorCodeNotFound:
		return true
	default:
		return false
	}
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithIssues attaches rule violations to an *Error (copy-on-write)
// A foreign error is wrapped into an *Error with Unknown code so the issues survive
func WithIssues(err error, issues []string) error {
	if e, ok := As(err); ok {
		c := *e
		c.issues = append([]string(nil), issues...)
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), issues: issues, orig: err}
}

// WithRetryAfter attaches reset seconds to an *Error (copy-on-write)
func WithRetryAfter(err error, seconds int) error {
	if e, ok := As(err); ok {
		c := *e
		c.retryAfter = seconds
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// Inputf returns an input error
func Inputf(format string, a ...any) error { return Newf(ErrorCodeInput, format, a...) }

// Configf returns a configuration error
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

// Upstreamf returns an upstream error
func Upstreamf(format string, a ...any) error { return Newf(ErrorCodeUpstream, format, a...) }

// UpstreamAuthf returns an upstream credential error
func UpstreamAuthf(format string, a ...any) error { return Newf(ErrorCodeUpstreamAuth, format, a...) }

// Timeoutf returns a deadline expiry error
func Timeoutf(format string, a ...any) error { return Newf(ErrorCodeTimeout, format, a...) }

// Parsef returns an upstream content parse error
func Parsef(format string, a ...any) error { return Newf(ErrorCodeParse, format, a...) }

// Realismf returns a realism validation error
func Realismf(format string, a ...any) error { return Newf(ErrorCodeRealism, format, a...) }

// RateLimitedf returns a too many requests error
func RateLimitedf(format string, a ...any) error { return Newf(ErrorCodeTooManyRequests, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// HTTP bundles status + wire in one shot (nice for handlers)
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}
