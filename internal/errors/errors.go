package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a remapping failure
type ErrorType string

const (
	ErrTypeSchema        ErrorType = "SCHEMA"
	ErrTypeDataIntegrity ErrorType = "DATA_INTEGRITY"
	ErrTypeMismatch      ErrorType = "VALIDATION_MISMATCH"
)

// maxListed caps how many codes are spelled out in an error message.
// The full list is always available on the error value.
const maxListed = 20

// SchemaError reports required columns or fields that are absent from a source.
type SchemaError struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Message string   `json:"message,omitempty"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "missing required columns"
	}
	if len(e.Columns) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Columns, ", "))
	}
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", ErrTypeSchema, e.Source, msg)
	}
	return fmt.Sprintf("[%s] %s", ErrTypeSchema, msg)
}

// NewSchemaError creates a schema error for the given source and missing columns
func NewSchemaError(source string, columns ...string) *SchemaError {
	return &SchemaError{Source: source, Columns: columns}
}

// DataIntegrityError reports well-formed input whose values break an invariant,
// e.g. correspondence shares that do not sum to one for an old code.
type DataIntegrityError struct {
	Source string   `json:"source"`
	Reason string   `json:"reason"`
	Codes  []string `json:"codes"`
}

// Error implements the error interface
func (e *DataIntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", ErrTypeDataIntegrity)
	if e.Source != "" {
		fmt.Fprintf(&b, "%s: ", e.Source)
	}
	b.WriteString(e.Reason)
	if len(e.Codes) > 0 {
		listed := e.Codes
		if len(listed) > maxListed {
			listed = listed[:maxListed]
		}
		fmt.Fprintf(&b, " (%d codes: %s", len(e.Codes), strings.Join(listed, ", "))
		if len(e.Codes) > maxListed {
			b.WriteString(", ...")
		}
		b.WriteString(")")
	}
	return b.String()
}

// NewDataIntegrityError creates a data integrity error listing the offending codes
func NewDataIntegrityError(source, reason string, codes []string) *DataIntegrityError {
	return &DataIntegrityError{Source: source, Reason: reason, Codes: codes}
}

// ValidationMismatch is the diagnostic outcome of a cross-validation that found
// differences above tolerance. It does not fail a run; callers surface it.
type ValidationMismatch struct {
	Dataset   string  `json:"dataset"`
	MaxDiff   float64 `json:"max_diff"`
	Tolerance float64 `json:"tolerance"`
	Count     int     `json:"count"`
}

// Error implements the error interface
func (e *ValidationMismatch) Error() string {
	return fmt.Sprintf("[%s] %s: %d cells differ, max difference %g exceeds tolerance %g",
		ErrTypeMismatch, e.Dataset, e.Count, e.MaxDiff, e.Tolerance)
}

// IsSchema reports whether err is or wraps a SchemaError
func IsSchema(err error) bool {
	var target *SchemaError
	return stderrors.As(err, &target)
}

// IsDataIntegrity reports whether err is or wraps a DataIntegrityError
func IsDataIntegrity(err error) bool {
	var target *DataIntegrityError
	return stderrors.As(err, &target)
}

// IsValidationMismatch reports whether err is or wraps a ValidationMismatch
func IsValidationMismatch(err error) bool {
	var target *ValidationMismatch
	return stderrors.As(err, &target)
}

// TypeOf classifies err into one of the remapping error types.
// Unknown errors return an empty ErrorType.
func TypeOf(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case IsSchema(err):
		return ErrTypeSchema
	case IsDataIntegrity(err):
		return ErrTypeDataIntegrity
	case IsValidationMismatch(err):
		return ErrTypeMismatch
	default:
		return ""
	}
}
