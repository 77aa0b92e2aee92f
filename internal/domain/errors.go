package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrMismatchedLength  = errors.New("mismatched column length")
	ErrInvalidValue      = errors.New("invalid value")
	ErrDuplicatePeriod   = errors.New("duplicate period")
	ErrInvalidParams     = errors.New("invalid parameters")
	ErrUnknownConvention = errors.New("unknown consumption convention")
	ErrUnknownModel      = errors.New("unknown forecast model")
	ErrNotFound          = errors.New("not found")
)

// ColumnError names the input column a malformed-input error refers to.
type ColumnError struct {
	Column string
	Reason string
	Err    error
}

func (e *ColumnError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("column %q: %v: %s", e.Column, e.Err, e.Reason)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// NewColumnError builds a ColumnError wrapping one of the sentinel errors above.
func NewColumnError(column string, err error, format string, args ...any) error {
	return &ColumnError{Column: column, Reason: fmt.Sprintf(format, args...), Err: err}
}
