// Package common defines sentinel errors and error types shared by the
// repositories, services and CLI of messagely. Callers should use errors.Is
// and errors.As to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrRegistrationFailed is matched by every *RegistrationError.
	ErrRegistrationFailed = errors.New("registration failed")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
