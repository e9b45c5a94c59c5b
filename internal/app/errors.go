package app

import "fmt"

// AppErrorType represents the type of application error.
type AppErrorType int

const (
	// StepFailed indicates a pipeline step returned an error.
	StepFailed AppErrorType = iota
	// DependencyMissing indicates required executables are not on PATH.
	DependencyMissing
	// ValidationFailed indicates invalid command input.
	ValidationFailed
)

// AppError represents an application-layer error.
type AppError struct {
	// Type is the error type.
	Type AppErrorType
	// Step is the pipeline step that failed, if any.
	Step string
	// Message is the error message.
	Message string
	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *AppError) Error() string {
	msg := e.Message
	if e.Step != "" {
		msg = fmt.Sprintf("%s: %s", e.Step, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError.
func NewAppError(errType AppErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ValidationFailed, message, cause)
}
