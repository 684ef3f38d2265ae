package services

import (
	"errors"
	"fmt"

	"github.com/facturado/billing-api/internal/repository"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrAllocation   = errors.New("document number could not be allocated")

	// ErrConcurrency is the repository's transaction-conflict sentinel, so
	// serialization failures and deadlocks surfacing from TxManager.Do match
	// it directly.
	ErrConcurrency = repository.ErrTxConflict
)

// ValidationError reports a missing or invalid field. It is never retried
// automatically; the caller gets the field name back for display.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
