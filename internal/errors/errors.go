// Package errors provides structured error types for the terravc filter.
// All errors include a category, code, message, and recoverable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryIndex    ErrorCategory = "INDEX"
	ErrCategoryLookup   ErrorCategory = "LOOKUP"
	ErrCategoryProtocol ErrorCategory = "PROTOCOL"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes
	CodeInvalidBounds = "INVALID_BOUNDS"
	CodeInvalidConfig = "INVALID_CONFIG"

	// Index codes
	CodeIndexUnavailable = "INDEX_UNAVAILABLE"
	CodePrepareFailed    = "PREPARE_FAILED"
	CodeUnknownSchema    = "UNKNOWN_SCHEMA"

	// Lookup codes
	CodeBindFailed  = "BIND_FAILED"
	CodeQueryFailed = "QUERY_FAILED"

	// Protocol codes
	CodeUnknownSituation = "UNKNOWN_SITUATION"
	CodeKindMismatch     = "KIND_MISMATCH"
	CodeSessionClosed    = "SESSION_CLOSED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// FilterError is the structured error type used throughout the system.
type FilterError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Cause       error
	Recoverable bool
}

// Error returns a formatted error string.
func (e *FilterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *FilterError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *FilterError) Is(target error) bool {
	var t *FilterError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new FilterError.
func New(category ErrorCategory, code, message string) *FilterError {
	return &FilterError{
		Category:    category,
		Code:        code,
		Message:     message,
		Recoverable: isRecoverable(category, code),
	}
}

// Wrap creates a new FilterError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *FilterError {
	return &FilterError{
		Category:    category,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: isRecoverable(category, code),
	}
}

// IsRecoverable checks whether an error (or its chain) is recoverable.
// Only index-unavailable is: the session downgrades to fail-open mode.
// Every other error either prevents the session from starting or
// terminates the pass.
func IsRecoverable(err error) bool {
	var fe *FilterError
	if errors.As(err, &fe) {
		return fe.Recoverable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a FilterError.
func GetCategory(err error) ErrorCategory {
	var fe *FilterError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a FilterError.
func GetCode(err error) string {
	var fe *FilterError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

func isRecoverable(category ErrorCategory, code string) bool {
	return category == ErrCategoryIndex && code == CodeIndexUnavailable
}

// Convenience constructors for common errors.

func NewConfigError(code, message string) *FilterError {
	return New(ErrCategoryConfig, code, message)
}

func NewIndexError(code, message string, cause error) *FilterError {
	return Wrap(ErrCategoryIndex, code, message, cause)
}

func NewLookupError(code, message string, cause error) *FilterError {
	return Wrap(ErrCategoryLookup, code, message, cause)
}

func NewProtocolError(code, message string) *FilterError {
	return New(ErrCategoryProtocol, code, message)
}

func NewInternalError(message string, cause error) *FilterError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
