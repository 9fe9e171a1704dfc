package alphavantage

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of a call failed.
type Kind int

const (
	// KindURL means the configured base URL could not be turned into a request URL.
	KindURL Kind = iota + 1
	// KindHTTP covers request creation, transport, status and body read failures.
	KindHTTP
	// KindDecode means the body did not match the expected JSON shape.
	KindDecode
	// KindAPI means Alpha Vantage answered with an error or rate-limit payload.
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	case KindAPI:
		return "api"
	}
	return "unknown"
}

// Error is returned by every Client call.
type Error struct {
	Kind     Kind
	Function Function
	Err      error
}

func (e *Error) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("alphavantage %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("alphavantage %s %s: %v", e.Function, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ErrMissingField is wrapped by FieldError when a required key is absent.
var ErrMissingField = errors.New("missing field")

// FieldError reports a JSON field that could not be decoded.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field %q: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// APIError is the message Alpha Vantage sends with a 200 status when a call
// is rejected (bad symbol, bad key, quota exceeded).
type APIError struct {
	Key     string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}
