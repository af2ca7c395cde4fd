// internal/fs/interfaces.go

package fs

import (
	"bazil.org/fuse/fs"
)

// Node represents a filesystem node (file or directory)
type Node interface {
	fs.Node
	fs.NodeSetattrer
}

// Directory represents a directory in the mount
type Directory interface {
	Node
	fs.NodeStringLookuper
	fs.HandleReadDirAller
	fs.NodeMkdirer
	fs.NodeCreater
	fs.NodeRemover
	fs.NodeRenamer
}

// FileInterface represents a file in the mount
type FileInterface interface {
	Node
	fs.NodeOpener
}

// FileHandleInterface represents an open file handle
type FileHandleInterface interface {
	fs.Handle
	fs.HandleReader
	fs.HandleWriter
}

var (
	_ fs.FS               = (*NullFS)(nil)
	_ fs.FSStatfser       = (*NullFS)(nil)
	_ Directory           = (*Dir)(nil)
	_ FileInterface       = (*File)(nil)
	_ FileHandleInterface = (*FileHandle)(nil)
)
