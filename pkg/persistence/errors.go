// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrBundleNotFound indicates a bundle was not found by the given name.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrBundleAlreadyExists indicates a bundle with the same name already exists.
	ErrBundleAlreadyExists = errors.New("bundle already exists")

	// ErrInvalidBundleName indicates a name unusable as a storage key.
	ErrInvalidBundleName = errors.New("invalid bundle name")
)

// BundleError wraps bundle storage errors with additional context.
type BundleError struct {
	Op   string // operation being performed, e.g. "Save", "GetByName"
	Name string // bundle name if applicable
	Err  error  // underlying error
}

func (e *BundleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s operation failed for bundle %s: %v", e.Op, e.Name, e.Err)
	}

	return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

func (e *BundleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewBundleError creates a new bundle error with context.
func NewBundleError(op, name string, err error) *BundleError {
	return &BundleError{Op: op, Name: name, Err: err}
}

// IsBundleNotFound checks if an error indicates a missing bundle.
func IsBundleNotFound(err error) bool {
	return errors.Is(err, ErrBundleNotFound)
}

// IsInvalidBundleName checks if an error indicates an unusable bundle name.
func IsInvalidBundleName(err error) bool {
	return errors.Is(err, ErrInvalidBundleName)
}
