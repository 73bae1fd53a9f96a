// Package apperr defines the error kinds surfaced by the catalog.
//
// Repositories and the catalog service never return bare storage errors or
// nil-as-not-found. Every failure is one of three kinds, and callers tell
// them apart with errors.Is:
//
//	if errors.Is(err, apperr.ErrNotFound) {
//	    c.String(http.StatusNotFound, "no book exists")
//	    return
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindStorage    Kind = "STORAGE"
)

// HTTPStatus returns the status code the HTTP layer answers with for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a catalog error with a kind, a message and an optional cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation error"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrStorage    = &Error{Kind: KindStorage, Message: "storage error"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ValidationWithDetails creates a validation error carrying per-field messages.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Storage wraps a failure reported by the underlying store.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op + " failed", cause: err}
}

// AsStorage returns err unchanged when it already carries a kind,
// otherwise it wraps it as a storage error.
func AsStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Storage(op, err)
}

// KindOf reports the kind of err. Unclassified errors count as storage errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
