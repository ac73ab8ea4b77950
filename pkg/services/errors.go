// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/bundlegen/pkg/bundle"
)

// Business logic errors - these indicate client errors (4xx responses).
var (
	// ErrInvalidRequest indicates a malformed or incomplete request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrWorkflowNotFound indicates the requested workflow does not exist in
	// the workspace.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStoreNotConfigured indicates a storage operation was requested but
	// no bundle store is wired up.
	ErrStoreNotConfigured = errors.New("bundle store not configured")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // operation name
	Code    string // error code for API responses
	Message string // human-readable message
	Err     error  // underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		bundle.IsInvalidConfiguration(err) ||
		bundle.IsCycleDetected(err) ||
		bundle.IsDanglingReference(err)
}

// IsWorkflowNotFound checks if an error indicates a missing workflow.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
