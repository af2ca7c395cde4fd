// Package state holds the namespace of a mounted filesystem: the directory and
// file registries and the mount clock.
package state

import (
	"errors"
	"time"
)

// RootPath is always a directory, whether or not it was ever registered.
const RootPath = "/"

// Kind classifies a registered path.
type Kind int

const (
	// KindDirectory marks a path registered with mkdir.
	KindDirectory Kind = iota
	// KindFile marks a path registered with create.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

var (
	// ErrExists indicates the path is already registered under some kind.
	ErrExists = errors.New("path already exists")

	// ErrNotFound indicates the path is not registered.
	ErrNotFound = errors.New("path not found")

	// ErrClosed is returned by every mutation after Close.
	ErrClosed = errors.New("filesystem state is closed")
)

// Options configures a new State.
type Options struct {
	// DirCapacity and FileCapacity bound the number of registered paths
	// of each kind. Registering beyond capacity evicts the oldest path.
	DirCapacity  int
	FileCapacity int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// OnEvict is called, with the state lock held, for every path pushed
	// out of a full registry.
	OnEvict func(kind Kind, path string)
}
