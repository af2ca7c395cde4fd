// Package fs binds the nullfs namespace to the kernel through bazil.org/fuse.
//
// This file contains the translation of namespace errors into FUSE errors.
package fs

import (
	"errors"
	"syscall"

	"nullfs/internal/logging"
	"nullfs/internal/namespace"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")
)

// ToFuseError converts a namespace error to the errno FUSE expects.
// Unknown errors become EIO.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	var nsErr *namespace.Error
	if errors.As(err, &nsErr) {
		errLogger.Trace("Converting namespace error to FUSE error: %v", nsErr)
	}

	switch {
	case errors.Is(err, namespace.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, namespace.ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, namespace.ErrUnsupported):
		// Reads of content report a permission error.
		return syscall.EPERM
	case errors.Is(err, namespace.ErrNameTooLong):
		return syscall.ENAMETOOLONG
	default:
		errLogger.Debug("Unknown error type, returning EIO: %v", err)
		return syscall.EIO
	}
}
