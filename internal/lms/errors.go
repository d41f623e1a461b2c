package lms

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the directory has no organisation for a lookup.
	ErrNotFound = errors.New("organisation not found")
	// ErrAuthentication is returned when the password grant does not yield a token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotAuthenticated is returned, before any request is sent, by every
	// Session operation whose token set is not valid.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrRequestFailure is returned for a 2xx response other than 200.
	ErrRequestFailure = errors.New("request failure")
)

// TransportError reports a failed round trip: either the request never got a
// response (Err is set) or the server answered with a non-2xx status.
type TransportError struct {
	Method     string
	URL        string // access_token is redacted
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SchemaError reports a response entity that lacks an expected field, or
// carries one that cannot be decoded into the expected type.
type SchemaError struct {
	Entity string
	Field  string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema mismatch [%s] %s: %v", e.Entity, e.Field, e.Err)
	}
	return fmt.Sprintf("schema mismatch [%s]: missing field %s", e.Entity, e.Field)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
