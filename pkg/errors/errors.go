// Package errors provides structured error types for grephite.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the viewer and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (colors, config, edge lists)
//   - *_NOT_FOUND: Stale or unknown references
//   - SCRIPT_*: Script compilation and runtime faults
//   - INTERNAL_*: Unexpected internal errors
//
// None of these errors are fatal to the host: components recover at their
// boundary and surface the error as a log line or a returned value.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidColor, "unparsable color %q", spec)
//	if errors.Is(err, errors.ErrCodeInvalidColor) {
//	    // skip the command
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeScriptCompile, luaErr, "compile %s", name)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidColor    Code = "INVALID_COLOR"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidEdgeList Code = "INVALID_EDGE_LIST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidScript   Code = "INVALID_SCRIPT_NAME"

	// Stale or unknown references
	ErrCodeNodeNotFound   Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeNoScriptActive Code = "NO_SCRIPT_ACTIVE"

	// Script faults
	ErrCodeScriptCompile Code = "SCRIPT_COMPILE"
	ErrCodeScriptRuntime Code = "SCRIPT_RUNTIME"
	ErrCodeScriptTimeout Code = "SCRIPT_TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsScriptFault reports whether err is a compilation, runtime or timeout
// failure of a user script.
func IsScriptFault(err error) bool {
	switch GetCode(err) {
	case ErrCodeScriptCompile, ErrCodeScriptRuntime, ErrCodeScriptTimeout:
		return true
	}
	return false
}
