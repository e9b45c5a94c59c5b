package render

import "fmt"

// RenderError reports a token whose expression could not be evaluated.
type RenderError struct {
	// File is the template file, when rendering from disk.
	File string
	// Token is the raw token text including delimiters.
	Token string
	// Offset is the byte offset of the token in the template.
	Offset int
	// Cause is the underlying template error.
	Cause error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("failed to render %s at %s offset %d: %v", e.Token, e.File, e.Offset, e.Cause)
	}
	return fmt.Sprintf("failed to render %s at offset %d: %v", e.Token, e.Offset, e.Cause)
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Cause
}
