package common

import (
	"fmt"
	"net/http"
)

// StatusError is an error carrying a human-readable message and an
// HTTP-equivalent status code, so a transport layer can translate it
// without inspecting the message.
type StatusError struct {
	Message string
	Status  int
}

// NewNotFoundError returns a StatusError with a 404 status.
func NewNotFoundError(format string, args ...any) *StatusError {
	return &StatusError{Message: fmt.Sprintf(format, args...), Status: http.StatusNotFound}
}

func (e *StatusError) Error() string {
	return e.Message
}

// Is makes a 404 StatusError match ErrorNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrorNotFound && e.Status == http.StatusNotFound
}

// Reason classifies why a registration did not create a user.
type Reason int

const (
	ReasonStore Reason = iota
	ReasonValidation
	ReasonHashing
	ReasonDuplicateUsername
)

func (r Reason) String() string {
	switch r {
	case ReasonValidation:
		return "validation"
	case ReasonHashing:
		return "hashing"
	case ReasonDuplicateUsername:
		return "duplicate username"
	default:
		return "store"
	}
}

// RegistrationError reports that a user was not created. Every value matches
// ErrRegistrationFailed; duplicate usernames additionally match
// ErrorAlreadyExists.
type RegistrationError struct {
	Username string
	Reason   Reason
	Err      error
}

func (e *RegistrationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("registration of %q failed: %s", e.Username, e.Reason)
	}
	return fmt.Sprintf("registration of %q failed: %s: %v", e.Username, e.Reason, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

func (e *RegistrationError) Is(target error) bool {
	switch target {
	case ErrRegistrationFailed:
		return true
	case ErrorAlreadyExists:
		return e.Reason == ReasonDuplicateUsername
	}
	return false
}
