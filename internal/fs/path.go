package fs

import (
	"path"
	"strings"
)

// VirtualPath is an absolute, cleaned path inside the mount.
type VirtualPath struct {
	// always starts with /
	path string
}

// NewVirtualPath cleans p and makes it absolute.
func NewVirtualPath(p string) *VirtualPath {
	cleaned := path.Clean("/" + strings.TrimPrefix(p, "/"))
	return &VirtualPath{path: cleaned}
}

// String returns the string representation of the path
func (vp *VirtualPath) String() string {
	return vp.path
}

// Child returns the path of name inside vp.
func (vp *VirtualPath) Child(name string) *VirtualPath {
	if vp.IsRoot() {
		return &VirtualPath{path: "/" + name}
	}
	return &VirtualPath{path: vp.path + "/" + name}
}

// IsRoot returns true if this is the root virtual path "/"
func (vp *VirtualPath) IsRoot() bool {
	return vp.path == "/"
}
