package service

import (
	"errors"
	"fmt"

	"quote-service/internal/store"
)

// Error kinds surfaced to callers. Validation and conflict errors are
// expected and user-correctable; store errors are logged and surfaced as a
// generic failure without retrying.
const (
	KindValidation = "VALIDATION"
	KindConflict   = "CONFLICT"
	KindNotFound   = "NOT_FOUND"
	KindStore      = "STORE"
)

// Error is a service failure discriminated by kind
type Error struct {
	Kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func storeError(msg string, err error) *Error {
	return &Error{Kind: KindStore, Message: msg, Err: err}
}

// ErrorKind extracts the kind of a service error, or KindStore for anything
// that escaped untyped.
func ErrorKind(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStore
}

// wrapStoreErr translates store sentinels into typed service errors. The msg
// names the entity for the caller-facing message.
func wrapStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: msg, Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindConflict, Message: msg, Err: err}
	case errors.Is(err, store.ErrInvalidParent):
		return &Error{Kind: KindValidation, Message: msg, Err: err}
	default:
		return storeError(msg, err)
	}
}
