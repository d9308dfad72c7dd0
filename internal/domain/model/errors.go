package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuth              = errors.New("authentication error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrConnectivity      = errors.New("connectivity error")
	ErrServer            = errors.New("server error")
	ErrStorage           = errors.New("storage error")
	ErrProcessing        = errors.New("processing error")
)

// Error is a classified failure carrying the message shown to the technician.
type Error struct {
	Kind error
	// Status is the HTTP status returned by the backend, or 0.
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%v: %s (HTTP %d): %v", e.Kind, e.Message, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%v: %s (HTTP %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewValidationError builds a validation failure with a user-facing message.
func NewValidationError(message string) *Error {
	return &Error{Kind: ErrValidation, Message: message}
}

// UserMessage returns the message to show for err. Errors that carry no
// classified message yield fallback.
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
