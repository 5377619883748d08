package buildconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField indicates a required field was absent or empty
	ErrMissingField = errors.New("missing field")
	// ErrInvalidPath indicates a declared path does not resolve to an existing file or is not allowed
	ErrInvalidPath = errors.New("invalid path")
	// ErrDuplicateKey indicates two pages or two aliases share a name
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnknownField indicates the descriptor contains a key outside the known schema
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidType indicates a value has the wrong type for its field
	ErrInvalidType = errors.New("invalid type")
	// ErrConfigNotFound is returned when no descriptor file can be located
	ErrConfigNotFound = errors.New("config file not found")
)

// FieldError reports a configuration failure together with the offending
// field path and the value that was supplied for it.
type FieldError struct {
	Err   error
	Field string
	Value string
	// Line is the 1-based line in the source descriptor, zero when unknown.
	Line int
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s: %s (value %q)", e.Err, e.Field, e.Value)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(err error, field, value string) *FieldError {
	return &FieldError{Err: err, Field: field, Value: value}
}
