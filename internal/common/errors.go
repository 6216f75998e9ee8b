// Package common defines shared constants and sentinel errors used across
// the client state containers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated is returned when an operation needs a session and
	// there is none. It is always detected before any network call.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidationFailed marks a client-side precondition violation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrRemoteRejected marks a non-success response from the backend.
	ErrRemoteRejected = errors.New("remote rejected")

	// ErrMalformedResponse marks a body that could not be parsed or whose
	// shape was not recognized after every fallback.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnrecognizedStatus marks a parsed envelope with an unknown status.
	ErrUnrecognizedStatus = errors.New("unrecognized status")

	// ErrBusy is returned by re-trigger guards while a request is in flight.
	ErrBusy = errors.New("operation already in progress")
)

// ValidationError lists the offending fields of a failed client-side check.
// It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(msg string, fields ...string) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}

type userMessager interface {
	UserMessage() string
}

// UserMessage returns the human-readable message a container stores as its
// error state: the backend's own message for remote rejections, otherwise
// the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m userMessager
	if errors.As(err, &m) {
		return m.UserMessage()
	}
	return err.Error()
}
