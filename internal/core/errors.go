package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the fulfillment operations. Callers classify with
// errors.Is; the inner message carries the specifics.
var (
	// ErrNotFound — order, task, product, or storage unit does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStockConflict — a commit-phase re-check found less available stock
	// than the plan assumed. Retryable: replan against fresh data and
	// commit again.
	ErrStockConflict = errors.New("stock conflict")

	// ErrInvalidStateTransition — the requested operation is not legal from
	// the order's or task's current status. Nothing was mutated.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrDuplicateCode — a generated code collided with an existing one.
	ErrDuplicateCode = errors.New("duplicate code")
)

// ValidationError reports a malformed identifier or quantity rejected at the
// operation boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
