package scaffold

import "fmt"

// ScaffoldErrorType categorizes scaffold errors.
type ScaffoldErrorType int

const (
	// TemplateNotFound indicates the named template directory does not exist.
	TemplateNotFound ScaffoldErrorType = iota
	// WriteFailed indicates a file or directory could not be written.
	WriteFailed
	// RenderFailed indicates template rendering failed.
	RenderFailed
	// PathError indicates an invalid or unsafe destination path was produced.
	PathError
)

// ScaffoldError represents scaffold-specific errors.
type ScaffoldError struct {
	// Type categorizes the error.
	Type ScaffoldErrorType
	// Message is the error message.
	Message string
	// File is the file path related to the error (if applicable).
	File string
	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ScaffoldError) Error() string {
	if e.File != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s (file: %s): %v", e.Message, e.File, e.Cause)
		}
		return fmt.Sprintf("%s (file: %s)", e.Message, e.File)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *ScaffoldError) Unwrap() error {
	return e.Cause
}

// newScaffoldError creates a new ScaffoldError.
func newScaffoldError(typ ScaffoldErrorType, message, file string, cause error) *ScaffoldError {
	return &ScaffoldError{
		Type:    typ,
		Message: message,
		File:    file,
		Cause:   cause,
	}
}
