package stack

import "fmt"

// StackErrorType categorizes stack errors.
type StackErrorType int

const (
	// DeployFailed indicates `docker stack deploy` failed for a reason other
	// than the transient network race.
	DeployFailed StackErrorType = iota
	// WatchFailed indicates the log tailer could not be started.
	WatchFailed
	// TeardownFailed indicates the stack could not be removed after watching.
	TeardownFailed
)

// StackError represents a failure of the bootstrap watcher.
type StackError struct {
	// Type categorizes the error.
	Type StackErrorType
	// Stack is the stack name.
	Stack string
	// Message is the error message.
	Message string
	// Stderr is the raw stderr of the failing command, when there is one.
	Stderr string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stack %s: %s: %v", e.Stack, e.Message, e.Cause)
	}
	return fmt.Sprintf("stack %s: %s", e.Stack, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *StackError) Unwrap() error {
	return e.Cause
}
