// Package errors provides structured error types for the layout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP service and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - SOLVER_*, TIMEOUT: Failures of the external layout solver
//   - NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Only the solver adapter produces SOLVER_FAILED and TIMEOUT. The pure
// post-processing stages never fail on well-typed input.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidModel, "duplicate node id: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidModel) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSolverFailed, origErr, "fdp layout")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidModel  Code = "INVALID_MODEL"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidMode   Code = "INVALID_MODE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Solver errors
	ErrCodeSolverFailed      Code = "SOLVER_FAILED"
	ErrCodeSolverUnavailable Code = "SOLVER_UNAVAILABLE"
	ErrCodeTimeout           Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsSolverFailure reports whether err came from the external layout solver,
// including timeouts imposed on the solver call.
func IsSolverFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeSolverFailed, ErrCodeSolverUnavailable, ErrCodeTimeout:
		return true
	}
	return false
}
