// Package bundle transforms workflow snapshots into declarative bundle
// documents and validates, renders and parses those documents.
package bundle

import (
	"errors"
	"fmt"
	"strings"
)

// Standard build error types callers can match with errors.Is.
var (
	// ErrCycleDetected indicates the workflow's dependency graph contains a
	// cycle; no document is produced.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrDanglingReference indicates an upstream edge points at a task key
	// that does not exist in the workflow.
	ErrDanglingReference = errors.New("dangling task reference")

	// ErrInvalidConfiguration indicates the build configuration is unusable,
	// e.g. a bundle name that slugifies to nothing.
	ErrInvalidConfiguration = errors.New("invalid bundle configuration")

	// ErrValidationFailed indicates a document carries one or more
	// error-severity findings.
	ErrValidationFailed = errors.New("bundle validation failed")
)

// BuildError wraps build failures with the tasks involved.
type BuildError struct {
	Op       string   // operation being performed, e.g. "Build"
	TaskKeys []string // offending task keys, if applicable
	Missing  string   // missing reference, for dangling references
	Err      error    // underlying sentinel
}

func (e *BuildError) Error() string {
	switch {
	case e.Missing != "" && len(e.TaskKeys) > 0:
		return fmt.Sprintf("%s: %v: task %q references missing task %q",
			e.Op, e.Err, e.TaskKeys[0], e.Missing)
	case len(e.TaskKeys) > 0:
		return fmt.Sprintf("%s: %v: tasks %s", e.Op, e.Err, strings.Join(e.TaskKeys, ", "))
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func (e *BuildError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsCycleDetected checks if an error indicates a dependency cycle.
func IsCycleDetected(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// IsDanglingReference checks if an error indicates a dangling task reference.
func IsDanglingReference(err error) bool {
	return errors.Is(err, ErrDanglingReference)
}

// IsInvalidConfiguration checks if an error indicates unusable build input.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsValidationFailed checks if an error aggregates validator findings.
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// ParseError reports malformed document text with its source location.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}
