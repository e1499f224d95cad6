package main

import (
	"errors"
	"fmt"
)

// ExitCodeError is an error that carries a specific process exit code, so
// a command's RunE can signal 1-vs-130-vs-success without calling os.Exit
// directly (which would skip cobra's own cleanup).
type ExitCodeError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitCodeError creates an ExitCodeError with the given code and message.
func NewExitCodeError(code int, message string) *ExitCodeError {
	return &ExitCodeError{Code: code, Message: message}
}

// asExitCodeError is errors.As spelled out as a named helper for main.go.
func asExitCodeError(err error, target **ExitCodeError) bool {
	return errors.As(err, target)
}
