package swaps

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable indicates the swap listing could not be opened or read.
	ErrSourceUnavailable = errors.New("swap listing unavailable")
	// ErrMalformedRecord indicates a data line with fewer than five fields.
	ErrMalformedRecord = errors.New("malformed swap record")
	// ErrMalformedEscape indicates a truncated or non-octal \ooo escape.
	ErrMalformedEscape = errors.New("malformed octal escape")
)

// RecordError names the first field missing from a data line.
type RecordError struct {
	Field string
}

func (e *RecordError) Error() string {
	return "missing " + e.Field
}

func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}

// FieldError wraps a decoding failure with the field it occurred in.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// EscapeError describes a malformed octal escape within a field.
// Offset is the position of the backslash for truncated escapes and of the
// offending byte otherwise.
type EscapeError struct {
	Offset    int
	Digit     byte
	Truncated bool
}

func (e *EscapeError) Error() string {
	if e.Truncated {
		return "truncated octal code"
	}
	return fmt.Sprintf("invalid octal digit %q at offset %d", e.Digit, e.Offset)
}

func (e *EscapeError) Unwrap() error {
	return ErrMalformedEscape
}
