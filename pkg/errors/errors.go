// Package errors provides structured error types for the Vizdeck engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI, and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for inline error output
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Block-level codes map to the rendering failure taxonomy:
//   - SPEC_ERROR: malformed block attributes
//   - UNKNOWN_BLOCK_KIND: block kind is not one of the known kinds
//   - UNRESOLVED_REFERENCE: chart references a name never registered
//   - MISSING_REQUIRED_CONFIG: renderer-reported missing required attribute
//   - RENDER_ERROR: uncaught failure inside a renderer
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnresolvedReference, "source %q not registered", name)
//	if errors.Is(err, errors.ErrCodeUnresolvedReference) {
//	    // Handle missing reference
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRenderError, origErr, "render chart %q", typeName)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Block-level rendering errors
	ErrCodeSpec                  Code = "SPEC_ERROR"
	ErrCodeUnknownBlockKind      Code = "UNKNOWN_BLOCK_KIND"
	ErrCodeUnresolvedReference   Code = "UNRESOLVED_REFERENCE"
	ErrCodeMissingRequiredConfig Code = "MISSING_REQUIRED_CONFIG"
	ErrCodeRenderError           Code = "RENDER_ERROR"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidColSpan  Code = "INVALID_COL_SPAN"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodeRendererNotFound Code = "RENDERER_NOT_FOUND"

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
// Returns ErrCodeInternal for non-nil errors that are not *Error, so every
// failure surfaced to the host carries some code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if err != nil {
		return ErrCodeInternal
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
