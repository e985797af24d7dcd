package core

import (
	"fmt"
)

// ErrorCategory classifies the type of error for reporting and for
// deciding how far a failure is allowed to propagate.
type ErrorCategory int

const (
	ErrCategoryNone        ErrorCategory = iota // No error
	ErrCategoryLocate                           // Element not found within timeout (expected, frequent)
	ErrCategoryTimeout                          // Bounded wait expired
	ErrCategorySession                          // Automation session unreachable or unresponsive
	ErrCategoryApp                              // Target app crashed, closed, or is not installed
	ErrCategoryConfig                           // Invalid configuration or missing test data
	ErrCategoryInterrupted                      // Operator cancelled the run
)

// String returns the string representation of ErrorCategory.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLocate:
		return "locate"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategorySession:
		return "session"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ExecutionError is a structured error with category, machine-readable
// code and an optional cause.
type ExecutionError struct {
	Category ErrorCategory
	Code     string // Machine-readable code: element_not_found, session_unreachable, ...
	Message  string // Human-readable message
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches on category and code so the sentinels below work with
// errors.Is even after WithCause.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause attached.
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Cause:    e.Cause,
	}
}

// Predefined errors.
var (
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryLocate,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrSessionUnreachable = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_unreachable",
		Message:  "could not reach automation session",
	}
	ErrSessionStart = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_start",
		Message:  "automation session could not be started",
	}
	ErrAppNotRunning = &ExecutionError{
		Category: ErrCategoryApp,
		Code:     "app_not_running",
		Message:  "target app is not in the foreground",
	}
	ErrImageNotFound = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "image_not_found",
		Message:  "test image file not found",
	}
	ErrNoTestCases = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "no_test_cases",
		Message:  "no test cases to run",
	}
	ErrInterrupted = &ExecutionError{
		Category: ErrCategoryInterrupted,
		Code:     "interrupted",
		Message:  "run interrupted by operator",
	}
)

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
