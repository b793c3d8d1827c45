package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	// KindValidation means the request itself is wrong and can be fixed by the caller.
	KindValidation Kind = "VALIDATION"
	// KindNotFound means no record matched.
	KindNotFound Kind = "NOT_FOUND"
	// KindBadRequest echoes a remote collaborator's 400-class answer.
	KindBadRequest Kind = "BAD_REQUEST"
	// KindServer is every other failure.
	KindServer Kind = "SERVER"
)

// Error is the error type returned by the store, the gateway and the application layer.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error. field may be empty.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// BadRequest builds a KindBadRequest error carrying msg verbatim.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Server builds a KindServer error.
func Server(msg string, err error) *Error {
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// ErrDuplicateID is returned by Repository.Create on a primary-key violation.
var ErrDuplicateID = errors.New("duplicate id")

// KindOf returns the kind of err, or KindServer when err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindServer
}

// AsError returns the *Error inside err, wrapping unknown errors as KindServer.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Server("unexpected error", err)
}
