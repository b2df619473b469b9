package rating

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrRating matches every *RatingError and *CoercionError.
	ErrRating = errors.New("rating failed")
	// ErrCoercion matches every *CoercionError.
	ErrCoercion = errors.New("attribute coercion failed")
	// ErrNotFound is wrapped by resolvers when no active product exists for a line.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a missing or malformed request field.
// The caller can recover by asking the customer again.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
}

// RatingError reports that a premium could not be computed: unsupported line,
// no active product, or a rate lookup failure. Err holds the cause, if any.
type RatingError struct {
	Message string
	Err     error
}

func (e *RatingError) Error() string { return e.Message }

func (e *RatingError) Unwrap() error { return e.Err }

func (e *RatingError) Is(target error) bool { return target == ErrRating }

// CoercionError reports a present attribute whose value cannot be converted
// to the type a rule needs. It is a kind of rating error.
type CoercionError struct {
	Field string
	Value any
	Want  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot use %v (%T) as %s for %s", e.Value, e.Value, e.Want, e.Field)
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrRating || target == ErrCoercion
}
