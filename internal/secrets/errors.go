package secrets

import (
	"errors"
	"fmt"
)

// --- Sentinel Errors ---
var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidPort         = errors.New("invalid port")
	ErrUnsafeInterpolation = errors.New("unsafe interpolation")
)

// FieldError reports a single field that failed validation.
// Unwrap returns one of the sentinel errors above, so callers can use errors.Is.
type FieldError struct {
	Field  string
	Err    error
	Reason string
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func missingField(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}

func invalidPort(field, reason string) error {
	return &FieldError{Field: field, Err: ErrInvalidPort, Reason: reason}
}

func unsafeInterpolation(field, reason string) error {
	return &FieldError{Field: field, Err: ErrUnsafeInterpolation, Reason: reason}
}
