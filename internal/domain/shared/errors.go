package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error.
// A DomainError may refine a broader kind (for example a listing-specific
// not-found error refines ErrNotFound) so callers can match either one with errors.Is.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	kind    *DomainError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the broader error kind, if any
func (e *DomainError) Unwrap() error {
	if e.kind == nil {
		return nil
	}
	return e.kind
}

// Kind returns the root code of the error chain (e.g. NOT_FOUND for LISTING_NOT_FOUND)
func (e *DomainError) Kind() string {
	if e.kind == nil {
		return e.Code
	}
	return e.kind.Kind()
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Refine creates a more specific error that still matches e with errors.Is
func (e *DomainError) Refine(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		kind:    e,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrValidation       = NewDomainError("VALIDATION_FAILED", "Validation failed")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConflict         = NewDomainError("CONFLICT", "Request conflicts with the current state of the resource")
	ErrStoreUnavailable = NewDomainError("STORE_UNAVAILABLE", "Persistence is temporarily unavailable")
)

// NewValidationError returns a VALIDATION_FAILED error carrying the given message
func NewValidationError(message string) *DomainError {
	return ErrValidation.Refine(ErrValidation.Code, message)
}

// NewStoreError wraps a persistence failure as a retryable STORE_UNAVAILABLE error.
// The cause stays in the chain so context errors can still be detected.
func NewStoreError(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, cause)
}

// IsNotFound reports whether err is, or refines, ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a validation or invalid input error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput)
}
