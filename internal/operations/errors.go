package operations

import (
	"context"
	"errors"
	"fmt"

	apperrors "ahtnremap/internal/errors"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeSchema        ErrorType = "schema"
	ErrorTypeDataIntegrity ErrorType = "data_integrity"
	ErrorTypeExecution     ErrorType = "execution"
	ErrorTypeCancellation  ErrorType = "cancellation"
	ErrorTypeFatal         ErrorType = "fatal"
)

// OperationError is a failure of one step of one dataset
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Dataset string    `json:"dataset,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Cause)
		}
	}
	switch {
	case e.Dataset != "" && e.Step != "":
		return fmt.Sprintf("[%s] %s/%s: %s", e.Type, e.Dataset, e.Step, msg)
	case e.Step != "":
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, msg)
	}
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step, dataset string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Dataset: dataset,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step, dataset string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Dataset: dataset,
		Message: "operation was cancelled",
		Cause:   context.Canceled,
	}
}

// NewFatalError creates a new fatal error; a fatal error aborts the run
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return classify(err)
}

// WrapError wraps an error with step and dataset context. The type follows
// the cause: schema and integrity problems keep their own type.
func WrapError(err error, step, dataset string) *OperationError {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		if opErr.Dataset == "" {
			opErr.Dataset = dataset
		}
		return opErr
	}

	return &OperationError{
		Type:    classify(err),
		Step:    step,
		Dataset: dataset,
		Cause:   err,
	}
}

func classify(err error) ErrorType {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCancellation
	case apperrors.IsSchema(err):
		return ErrorTypeSchema
	case apperrors.IsDataIntegrity(err):
		return ErrorTypeDataIntegrity
	case apperrors.IsValidationMismatch(err):
		return ErrorTypeValidation
	default:
		return ErrorTypeExecution
	}
}

// ErrorList represents multiple errors
type ErrorList struct {
	Errors []*OperationError `json:"errors"`
}

// Error implements the error interface
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors: %d errors occurred", len(e.Errors))
}

// Add adds an error to the list
func (e *ErrorList) Add(err *OperationError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// GetByStep returns errors for a specific step
func (e *ErrorList) GetByStep(step string) []*OperationError {
	var stepErrors []*OperationError
	for _, err := range e.Errors {
		if err.Step == step {
			stepErrors = append(stepErrors, err)
		}
	}
	return stepErrors
}

// Err returns the list as an error, or nil when it is empty
func (e *ErrorList) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
