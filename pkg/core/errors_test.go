package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_unreachable",
		Message:  "could not reach automation session",
	}

	if got := err.Error(); got != "could not reach automation session" {
		t.Errorf("Error() = %q", got)
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrSessionUnreachable.WithCause(cause)

	if !errors.Is(err, ErrSessionUnreachable) {
		t.Error("errors.Is should match sentinel after WithCause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
	if got := err.Error(); got != "could not reach automation session: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	// Sentinel must not be mutated
	if ErrSessionUnreachable.Cause != nil {
		t.Error("WithCause mutated the sentinel")
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	err := ErrElementNotFound.WithMessage("Get Started button not found")

	if err.Message != "Get Started button not found" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "element_not_found" {
		t.Errorf("Code = %q, want element_not_found", err.Code)
	}
	if !errors.Is(err, ErrElementNotFound) {
		t.Error("errors.Is should still match the sentinel")
	}
}

func TestExecutionError_As(t *testing.T) {
	wrapped := fmt.Errorf("case TC001: %w", ErrInterrupted.WithCause(errors.New("signal")))

	var execErr *ExecutionError
	if !errors.As(wrapped, &execErr) {
		t.Fatal("errors.As should find ExecutionError")
	}
	if execErr.Category != ErrCategoryInterrupted {
		t.Errorf("Category = %s, want interrupted", execErr.Category)
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategoryLocate, "locate"},
		{ErrCategoryTimeout, "timeout"},
		{ErrCategorySession, "session"},
		{ErrCategoryApp, "app"},
		{ErrCategoryConfig, "config"},
		{ErrCategoryInterrupted, "interrupted"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.category, got, tt.want)
		}
	}
}
