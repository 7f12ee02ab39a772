package domain

import "errors"

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("insufficient role permissions")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Entity errors
var (
	ErrNotFound            = errors.New("entity not found")
	ErrDuplicatePhone      = errors.New("phone number already in use")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrForeignKeyViolation = errors.New("referenced entity does not exist")
)

// Validation errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidEnum       = errors.New("value is not in the allowed set")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// Store errors
var (
	// ErrStoreBusy is returned when the writer lock is held by another
	// connection. It is the only error callers should retry.
	ErrStoreBusy = errors.New("store is busy")
)

// IsRetryable reports whether err is a transient store condition
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy)
}
