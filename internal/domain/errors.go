package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises a failure for the HTTP boundary and for logs.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindSlotConflict Kind = "slot_conflict"
	KindNotFound     Kind = "not_found"
	KindStorage      Kind = "storage_error"
	KindPersistence  Kind = "persistence_error"
	KindNotification Kind = "notification_error"
	KindRateLimited  Kind = "rate_limited"
)

// Error is the single error type crossing the service boundary.
type Error struct {
	Kind    Kind
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

// Is lets errors.Is match on Kind alone, e.g. errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	return e.Kind.Status()
}

func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindSlotConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether Message may be shown to the client as is.
// Storage and persistence details stay in the log.
func (k Kind) Public() bool {
	switch k {
	case KindStorage, KindPersistence, KindNotification:
		return false
	}
	return true
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func SlotConflict(msg string) *Error {
	return &Error{Kind: KindSlotConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

func Notification(msg string, err error) *Error {
	return &Error{Kind: KindNotification, Message: msg, Err: err}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
// Anything else is treated as a persistence failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
