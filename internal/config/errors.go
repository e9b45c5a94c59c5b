package config

import "fmt"

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType int

const (
	// ConfigNotFound indicates an explicitly requested configuration file is missing.
	ConfigNotFound ConfigErrorType = iota
	// ConfigInvalid indicates the configuration could not be parsed.
	ConfigInvalid
	// ConfigValidationFailed indicates a value is out of range.
	ConfigValidationFailed
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	// Type is the error type.
	Type ConfigErrorType
	// Message is the error message.
	Message string
	// File is the configuration file path, empty for defaults, env or flags.
	File string
	// Field is the option that caused the error.
	Field string
	// Cause is the underlying error if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.File != "" {
		msg += " in " + e.File
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" [%s]", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func fieldError(field, message string) *ConfigError {
	return &ConfigError{Type: ConfigValidationFailed, Field: field, Message: message}
}
