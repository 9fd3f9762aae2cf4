package domain

import "fmt"

// ConvertError is the base error type with context.
type ConvertError struct {
	Phase   string // "setup", "config", "scan", "parse", "convert", "validate", "write"
	File    string
	Line    int
	Message string
	Cause   error
}

func (e *ConvertError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.Line > 0 {
		s += fmt.Sprintf(":%d", e.Line)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *ConvertError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ConvertError.
func NewError(phase, file string, line int, message string, cause error) *ConvertError {
	return &ConvertError{
		Phase:   phase,
		File:    file,
		Line:    line,
		Message: message,
		Cause:   cause,
	}
}

// NewSetupError creates a ConvertError for unrecoverable startup
// failures (missing service endpoint, unloadable schema). Setup errors
// are the only errors that abort a run before any document is
// processed.
func NewSetupError(message string, cause error) *ConvertError {
	return &ConvertError{Phase: "setup", Message: message, Cause: cause}
}
