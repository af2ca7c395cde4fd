// Package namespace implements the operations of the nullfs mount against
// its path registries.
//
// This file contains error types and error handling utilities.
package namespace

import (
	"errors"
	"fmt"

	"nullfs/internal/state"
)

var (
	// ErrNotFound indicates the path is neither the root nor registered.
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the path is already registered.
	ErrAlreadyExists = errors.New("path already exists")

	// ErrUnsupported indicates an operation that nullfs never performs,
	// such as reading file content.
	ErrUnsupported = errors.New("operation not supported")

	// ErrNameTooLong indicates a path longer than the configured limit.
	ErrNameTooLong = errors.New("path too long")

	// ErrClosed indicates the mount has been shut down.
	ErrClosed = errors.New("filesystem is closed")
)

// Error wraps a namespace error with the operation and path it occurred on.
type Error struct {
	Op   string // Operation that failed (e.g., "getattr", "mkdir")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given operation, path, and underlying error
func NewError(op string, path string, err error) *Error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  fromState(err),
	}
}

// fromState maps state errors onto the namespace sentinels.
func fromState(err error) error {
	switch {
	case errors.Is(err, state.ErrExists):
		return ErrAlreadyExists
	case errors.Is(err, state.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, state.ErrClosed):
		return ErrClosed
	default:
		return err
	}
}

// Operation names for consistent logging, metrics and error reporting
const (
	OpGetattr  = "getattr"
	OpReaddir  = "readdir"
	OpOpen     = "open"
	OpRead     = "read"
	OpWrite    = "write"
	OpCreate   = "create"
	OpUnlink   = "unlink"
	OpRmdir    = "rmdir"
	OpRename   = "rename"
	OpTruncate = "truncate"
	OpChmod    = "chmod"
	OpChown    = "chown"
	OpUtimens  = "utimens"
	OpStatfs   = "statfs"
	OpMkdir    = "mkdir"
)
