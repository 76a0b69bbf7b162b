// Package errors provides structured error types for the Plotdeck engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND / NOT_FOUND: Resource lookups that missed
//   - NOTHING_TO_*: History operations at the ends of the log
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateName, "dataset %q already exists", name)
//	if errors.Is(err, errors.ErrCodeDuplicateName) {
//	    // Handle the name collision
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEval, origErr, "evaluating %q", name)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidName      Code = "INVALID_NAME"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidSetting   Code = "INVALID_SETTING"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidChildType Code = "INVALID_CHILD_TYPE"

	// Name and reference errors
	ErrCodeDuplicateName    Code = "DUPLICATE_NAME"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeCycleDetected    Code = "CYCLE_DETECTED"
	ErrCodeNotRaw           Code = "NOT_RAW"
	ErrCodeNotDerived       Code = "NOT_DERIVED"
	ErrCodeInUse            Code = "IN_USE"
	ErrCodeShapeMismatch    Code = "SHAPE_MISMATCH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	// Expression errors
	ErrCodeParse Code = "PARSE_ERROR"
	ErrCodeEval  Code = "EVAL_ERROR"

	// History errors
	ErrCodeNothingToUndo Code = "NOTHING_TO_UNDO"
	ErrCodeNothingToRedo Code = "NOTHING_TO_REDO"

	// Concurrency errors
	ErrCodeDocumentBusy Code = "DOCUMENT_BUSY"
	ErrCodeCancelled    Code = "CANCELLED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeUnavailable Code = "UNAVAILABLE"
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

// As finds the first error in err's chain matching target. It is a
// passthrough to the standard library so callers that need a concrete
// error type (such as [InUseError]) only import one errors package.
func As(err error, target any) bool {
	return errors.As(err, target)
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

// InUseError reports the datasets that block a delete.
// Dependents are sorted so messages are stable.
type InUseError struct {
	Name       string   // Dataset that cannot be deleted
	Dependents []string // Derived datasets that reference it
}

// Error implements the error interface.
func (e *InUseError) Error() string {
	if len(e.Dependents) > 0 {
		return fmt.Sprintf("dataset %q is referenced by %s", e.Name, strings.Join(e.Dependents, ", "))
	}
	return fmt.Sprintf("dataset %q is in use", e.Name)
}

// Code returns the error code for this error type.
func (e *InUseError) Code() Code {
	return ErrCodeInUse
}
