package record

import (
	"errors"
	"fmt"
)

// Decode failures. Every one of them is fatal for the record being decoded.
var (
	ErrTruncatedData   = errors.New("truncated data")
	ErrInvalidEncoding = errors.New("invalid encoding")
	ErrInvalidBCDDigit = errors.New("invalid BCD digit")
)

// FieldError locates a decode failure inside a record.
type FieldError struct {
	Field  string
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
