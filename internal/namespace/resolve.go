package namespace

import (
	"os"
	"time"

	"nullfs/internal/state"
)

// Fixed permission bits. nullfs does not enforce or change them.
const (
	DirMode  = os.ModeDir | 0o777
	FileMode = os.FileMode(0o666)
)

// Attributes is the metadata reported for a path.
type Attributes struct {
	Kind  state.Kind
	Mode  os.FileMode
	Nlink uint32
	Size  uint64 // always zero, no content is stored
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

// IsDir reports whether the attributes describe a directory.
func (a Attributes) IsDir() bool {
	return a.Kind == state.KindDirectory
}

// resolve classifies path and builds its attributes. Directories take
// precedence over files.
func resolve(st *state.State, path string) (Attributes, error) {
	kind, ok := st.Classify(path)
	if !ok {
		return Attributes{}, ErrNotFound
	}

	mounted := st.MountTime()
	attr := Attributes{
		Kind:  kind,
		Atime: st.Now(),
		Mtime: mounted,
		Ctime: mounted,
	}
	if kind == state.KindDirectory {
		attr.Mode = DirMode
		attr.Nlink = 2
	} else {
		attr.Mode = FileMode
		attr.Nlink = 1
	}
	return attr, nil
}
