package patch

import "fmt"

// PatchErrorType categorizes patch errors.
type PatchErrorType int

const (
	// FileAccess indicates the target file is missing or cannot be read or written.
	FileAccess PatchErrorType = iota
	// InvalidSpec indicates a spec is malformed (no tag, or both replace and template).
	InvalidSpec
	// TemplateFailed indicates the replacement template could not be rendered.
	TemplateFailed
)

// PatchError represents a failure while applying a patch spec.
type PatchError struct {
	// Type categorizes the error.
	Type PatchErrorType
	// Index is the position of the failing spec in the sequence.
	Index int
	// File is the target file of the failing spec.
	File string
	// Message is the error message.
	Message string
	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("patch #%d %s (file: %s): %v", e.Index+1, e.Message, e.File, e.Cause)
	}
	return fmt.Sprintf("patch #%d %s (file: %s)", e.Index+1, e.Message, e.File)
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *PatchError) Unwrap() error {
	return e.Cause
}

func newPatchError(typ PatchErrorType, index int, file, message string, cause error) *PatchError {
	return &PatchError{
		Type:    typ,
		Index:   index,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}
