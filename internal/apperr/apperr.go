// Package apperr defines the domain failures surfaced to API callers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// statusByKind is the single place where failure kinds become HTTP statuses.
var statusByKind = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindTooManyRequests: http.StatusTooManyRequests,
}

// InternalMessage is the only message callers see for unrecognized failures.
const InternalMessage = "An unexpected error occurred"

// Error is a recognized domain failure. Its message is safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the failure.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// BadRequest creates a 400 failure.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Unauthorized creates a 401 failure.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NotFound creates a 404 failure.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict creates a 409 failure.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// TooManyRequests creates a 429 failure.
func TooManyRequests(msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Wrap attaches a cause to the failure without changing what the caller sees.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// Resolve returns the status and caller-facing message for err.
// Unrecognized errors resolve to 500 with InternalMessage.
func Resolve(err error) (int, string) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		if status, ok := statusByKind[domainErr.Kind]; ok {
			return status, domainErr.Message
		}
	}
	return http.StatusInternalServerError, InternalMessage
}

// Is reports whether err carries a domain failure of the given kind.
func Is(err error, kind Kind) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}
