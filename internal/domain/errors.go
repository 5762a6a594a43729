package domain

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind names a class of tool failure.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindProcessingTimeout ErrorKind = "ProcessingTimeoutError"
	KindProcessing        ErrorKind = "ProcessingError"
	KindUnknown           ErrorKind = "UnknownError"
)

// FieldError describes one offending input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports malformed or missing tool input.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ProcessingTimeoutError reports an evaluation that exceeded its deadline.
type ProcessingTimeoutError struct {
	Operation string
	Timeout   time.Duration
	Err       error
}

func (e *ProcessingTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Timeout)
}

func (e *ProcessingTimeoutError) Unwrap() error { return e.Err }

// ProcessingError reports a failure while evaluating otherwise valid input.
type ProcessingError struct {
	Operation string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
