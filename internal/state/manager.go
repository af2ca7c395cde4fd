package state

import (
	"fmt"
	"sync"
	"time"

	"nullfs/internal/logging"
	"nullfs/internal/registry"
)

var (
	logger = logging.GetLogger().WithPrefix("state")
)

// State owns both registries of a mount and the time it was mounted. All
// mutations take one exclusive lock so that checking a path against both
// registries and registering it happen atomically.
type State struct {
	mu        sync.RWMutex
	dirs      *registry.Registry
	files     *registry.Registry
	mountTime time.Time
	now       func() time.Time
	onEvict   func(Kind, string)
	closed    bool
}

// New creates the state for a new mount and captures the mount clock.
func New(opts Options) (*State, error) {
	dirs, err := registry.New("directory", opts.DirCapacity)
	if err != nil {
		return nil, fmt.Errorf("directory registry: %w", err)
	}
	files, err := registry.New("file", opts.FileCapacity)
	if err != nil {
		return nil, fmt.Errorf("file registry: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &State{
		dirs:      dirs,
		files:     files,
		mountTime: now(),
		now:       now,
		onEvict:   opts.OnEvict,
	}
	logger.Info("State created at %s (dirs=%d, files=%d)",
		s.mountTime.Format(time.RFC3339), opts.DirCapacity, opts.FileCapacity)
	return s, nil
}

// MountTime returns the time captured when the state was created.
func (s *State) MountTime() time.Time {
	return s.mountTime
}

// Now returns the current time from the state's clock.
func (s *State) Now() time.Time {
	return s.now()
}

func (s *State) registryFor(kind Kind) *registry.Registry {
	if kind == KindDirectory {
		return s.dirs
	}
	return s.files
}

// Classify returns the kind of path. The root is always a directory.
func (s *State) Classify(path string) (Kind, bool) {
	if path == RootPath {
		return KindDirectory, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dirs.Contains(path) {
		return KindDirectory, true
	}
	if s.files.Contains(path) {
		return KindFile, true
	}
	return 0, false
}

// IsDir reports whether path is the root or a registered directory.
func (s *State) IsDir(path string) bool {
	kind, ok := s.Classify(path)
	return ok && kind == KindDirectory
}

// Register adds path under kind. It fails with ErrExists if the path is the
// root or is already registered under either kind.
func (s *State) Register(path string, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.registerLocked(path, kind)
}

func (s *State) registerLocked(path string, kind Kind) error {
	if path == RootPath || s.dirs.Contains(path) || s.files.Contains(path) {
		return ErrExists
	}

	evicted, err := s.registryFor(kind).Register(path)
	if err != nil {
		return ErrExists
	}
	if evicted != "" && s.onEvict != nil {
		s.onEvict(kind, evicted)
	}
	return nil
}

// Remove drops path from the registry of kind. It fails with ErrNotFound if
// the path is not registered as kind.
func (s *State) Remove(path string, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.registryFor(kind).Remove(path) {
		return ErrNotFound
	}
	return nil
}

// Move re-registers src under dst, keeping its kind. Any entry already at dst
// is replaced. Only the named path moves; entries below a moved directory are
// left where they are.
func (s *State) Move(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if dst == RootPath {
		return ErrExists
	}

	var kind Kind
	switch {
	case s.dirs.Contains(src):
		kind = KindDirectory
	case s.files.Contains(src):
		kind = KindFile
	default:
		return ErrNotFound
	}
	if src == dst {
		return nil
	}

	// The moved entry keeps its slot, so a rename never evicts another path.
	s.dirs.Remove(dst)
	s.files.Remove(dst)
	if err := s.registryFor(kind).Replace(src, dst); err != nil {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of registered paths of kind.
func (s *State) Count(kind Kind) int {
	return s.registryFor(kind).Len()
}

// Capacity returns the maximum number of registered paths of kind.
func (s *State) Capacity(kind Kind) int {
	return s.registryFor(kind).Capacity()
}

// Paths returns the registered paths of kind, oldest first.
func (s *State) Paths(kind Kind) []string {
	return s.registryFor(kind).Paths()
}

// Close releases both registries. Queries keep answering as if nothing was
// ever registered; mutations fail with ErrClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.dirs.Reset()
	s.files.Reset()
	logger.Info("State closed")
	return nil
}

// Closed reports whether Close has been called.
func (s *State) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
