// Package apperrors defines the error taxonomy the HTTP layer translates to
// status codes: validation (400), not found (404), conflict (409), auth
// (401/403), everything else 500.
package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLicenseNotFound  = errors.New("license not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrRenewalNotFound  = errors.New("renewal request not found")
	ErrResourceNotFound = errors.New("resource not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
)

// ValidationError is a user-correctable input problem
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError signals a violated state precondition. Record carries the
// conflicting entity so callers can show current status instead of a bare
// error.
type ConflictError struct {
	Message string
	Record  interface{}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a ConflictError carrying the conflicting record
func NewConflictError(message string, record interface{}) error {
	return &ConflictError{Message: message, Record: record}
}

// IsNotFound reports whether err is one of the not-found sentinels
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLicenseNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrRenewalNotFound) ||
		errors.Is(err, ErrResourceNotFound)
}
