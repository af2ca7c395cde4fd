package namespace

import (
	"nullfs/internal/state"
)

// DirEntry is one name returned by Readdir.
type DirEntry struct {
	Name string
	Kind state.Kind
}

// list returns the entries of a directory. Parent/child relationships are
// not tracked, so every directory lists only itself and its parent.
func list(st *state.State, path string) ([]DirEntry, error) {
	if !st.IsDir(path) {
		return nil, ErrNotFound
	}
	return []DirEntry{
		{Name: ".", Kind: state.KindDirectory},
		{Name: "..", Kind: state.KindDirectory},
	}, nil
}
