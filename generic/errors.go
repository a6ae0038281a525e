/*
errors.go - Centralized error types for the HR dashboard

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context; the API layer
  maps them to HTTP status codes with errors.Is.

ERROR CATEGORIES:
  1. Validation errors - Missing fields, bad formats, dates out of range.
     Caught before any store call; no partial write happens.
  2. Lookup errors - The referenced row does not exist
  3. Conflict errors - Uniqueness or workflow-state violations
  4. Access errors - Unauthenticated or insufficient role
  5. Store errors - Anything else from the database (reported as 500)

USAGE:
    if errors.Is(err, generic.ErrNotFound) {
        // 404
    }

SEE ALSO:
  - api/handlers.go: writeServiceError maps categories to status codes
  - store/sqldb: Translates driver errors into these sentinels
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced row doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails validation.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned when a workflow status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientBalance is returned when leave exceeds the remaining allowance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnauthorized is returned when no valid credentials were presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user's role lacks a permission.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError is one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a disallowed status change.
type TransitionError struct {
	Kind string // e.g. "leave request", "application"
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// InsufficientBalanceError provides details about a leave shortage.
type InsufficientBalanceError struct {
	EmployeeID string
	LeaveType  string
	Available  Amount
	Requested  Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %v, requested %v",
		e.LeaveType, e.Available.Value, e.Requested.Value)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
