// Package registry tracks which paths of one kind are known to the filesystem.
//
// A Registry holds at most Capacity paths. Paths are written into a ring of
// slots at a rotating cursor; once the ring is full the next registration
// evicts the oldest registered path. A hash index maps each path to its slot
// so membership tests do not scan the ring.
package registry

import (
	"errors"
	"sync"

	"nullfs/internal/logging"
)

var (
	logger = logging.GetLogger().WithPrefix("registry")

	// ErrExists is returned by Register when the path is already present.
	ErrExists = errors.New("path already registered")

	// ErrNotFound is returned by Replace when the old path is absent.
	ErrNotFound = errors.New("path not registered")

	// ErrInvalidCapacity is returned by New for a capacity below one.
	ErrInvalidCapacity = errors.New("registry capacity must be positive")
)

// Registry is a bounded set of paths with first-in first-out eviction.
// It is safe for concurrent use.
type Registry struct {
	name   string
	mu     sync.RWMutex
	slots  []string       // ring; "" marks a free slot
	index  map[string]int // path -> slot
	cursor int
}

// New creates an empty registry holding up to capacity paths. The name is
// used for logging only.
func New(name string, capacity int) (*Registry, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	logger.Debug("Creating %s registry with capacity %d", name, capacity)
	return &Registry{
		name:  name,
		slots: make([]string, capacity),
		index: make(map[string]int, capacity),
	}, nil
}

// Contains reports whether path is registered.
func (r *Registry) Contains(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[path]
	return ok
}

// Register adds path at the cursor and advances it. Only a full registry
// evicts: the path in the slot under the cursor, which is the oldest, is
// dropped and returned. When slots were freed by Remove the live paths are
// packed first so the new path still lands behind all of them.
func (r *Registry) Register(path string) (evicted string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[path]; ok {
		return "", ErrExists
	}

	if r.slots[r.cursor] != "" {
		if len(r.index) < len(r.slots) {
			r.compactLocked()
		} else {
			evicted = r.slots[r.cursor]
			delete(r.index, evicted)
			logger.Debug("%s registry full, evicting %q", r.name, evicted)
		}
	}

	r.slots[r.cursor] = path
	r.index[path] = r.cursor
	logger.Trace("Registered %q in %s slot %d", path, r.name, r.cursor)
	r.cursor = (r.cursor + 1) % len(r.slots)
	return evicted, nil
}

// compactLocked moves the live paths, oldest first, to the front of the ring
// and points the cursor at the first free slot. The registry must not be full.
func (r *Registry) compactLocked() {
	live := make([]string, 0, len(r.index))
	for i := range r.slots {
		if p := r.slots[(r.cursor+i)%len(r.slots)]; p != "" {
			live = append(live, p)
		}
	}
	for i := range r.slots {
		r.slots[i] = ""
	}
	for i, p := range live {
		r.slots[i] = p
		r.index[p] = i
	}
	r.cursor = len(live)
	logger.Trace("Compacted %s registry to %d entries", r.name, len(live))
}

// Replace renames old to path in place. The entry keeps its slot, so its
// position in the eviction order does not change and nothing is evicted.
func (r *Registry) Replace(old, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[old]
	if !ok {
		return ErrNotFound
	}
	if old == path {
		return nil
	}
	if _, ok := r.index[path]; ok {
		return ErrExists
	}

	delete(r.index, old)
	r.slots[slot] = path
	r.index[path] = slot
	logger.Trace("Replaced %q with %q in %s slot %d", old, path, r.name, slot)
	return nil
}

// Remove drops path from the registry and reports whether it was present.
// The cursor does not move.
func (r *Registry) Remove(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[path]
	if !ok {
		return false
	}
	delete(r.index, path)
	r.slots[slot] = ""
	logger.Trace("Removed %q from %s slot %d", path, r.name, slot)
	return true
}

// Len returns the number of registered paths.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// Capacity returns the maximum number of paths the registry holds.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Paths returns the registered paths, oldest first.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.index))
	for i := range r.slots {
		if p := r.slots[(r.cursor+i)%len(r.slots)]; p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Reset removes every path and rewinds the cursor.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		r.slots[i] = ""
	}
	r.index = make(map[string]int, len(r.slots))
	r.cursor = 0
}
