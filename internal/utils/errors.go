package utils

import (
	"fmt"
)

// UserError is an error the CLI shows as is, with an optional hint on how to
// fix the invocation.
type UserError struct {
	Message  string
	Solution string
	Err      error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Solution != "" {
		msg += fmt.Sprintf("\n\nHint: %s", e.Solution)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new UserError
func NewUserError(message, solution string, err error) *UserError {
	return &UserError{
		Message:  message,
		Solution: solution,
		Err:      err,
	}
}

// ValidationError reports an invalid option value, or an input line that
// breaks the trace format when Line is set.
type ValidationError struct {
	Field   string
	Line    int
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewLineValidationError attributes err to a 1-based input line. The result
// unwraps to err.
func NewLineValidationError(line int, field string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Line:    line,
		Message: err.Error(),
		Err:     err,
	}
}
