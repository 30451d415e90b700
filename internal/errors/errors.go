// Package errors provides a lightweight structured error type (PaperkitError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a paperkit error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External engine integration errors
	CategoryEngine       ErrorCategory = "engine"
	CategoryBibliography ErrorCategory = "bibliography"
	CategoryViewer       ErrorCategory = "viewer"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryHistory  ErrorCategory = "history"
	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PaperkitError is a structured error with category, severity, and context
type PaperkitError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PaperkitError
type ContextFields map[string]any

// Error implements the error interface
func (e *PaperkitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PaperkitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PaperkitError) WithContext(key string, value any) *PaperkitError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PaperkitError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PaperkitError {
	return &PaperkitError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PaperkitError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PaperkitError {
	return &PaperkitError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error (or any error it wraps) belongs to a category
func IsCategory(err error, category ErrorCategory) bool {
	var pe *PaperkitError
	if stderrors.As(err, &pe) {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error chain, or returns
// CategoryInternal if no PaperkitError is present
func GetCategory(err error) ErrorCategory {
	var pe *PaperkitError
	if stderrors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}
