// internal/services/errors.go
package services

import "errors"

var (
	// ErrInvalidCart means a cart item cannot be checked out: it has no
	// remote price id or its product is unknown or inactive.
	ErrInvalidCart   = errors.New("invalid cart")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotConfigured = errors.New("provider not configured")
	// ErrGateway wraps failures reported by the payment provider.
	ErrGateway = errors.New("payment provider error")
)
