package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving the reservation core matches exactly one of these via errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("asset unavailable for requested window")
	ErrTransientStore = errors.New("transient store failure")
	ErrNotFound       = errors.New("not found")
)

// Error is a classified failure. It unwraps to both its kind and its cause.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewValidationError(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewTransientError wraps an infrastructure fault. Already classified errors pass through unchanged.
func NewTransientError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return &Error{Kind: ErrTransientStore, Op: op, Err: err}
}

// IsClassified reports whether err already carries one of the four kinds.
func IsClassified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTransientStore) ||
		errors.Is(err, ErrNotFound)
}
