package usecase

import "errors"

var (
	// ErrUnauthenticated is returned when the caller carries no owner identity.
	ErrUnauthenticated = errors.New("unauthenticated caller")

	// ErrInvalidInput is returned when the submitted transaction fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
