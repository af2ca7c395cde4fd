package fs

import (
	"bazil.org/fuse"

	"nullfs/internal/namespace"
	"nullfs/internal/state"
)

const attrBlockSize = 1024

// fillAttr copies namespace attributes into a FUSE attribute block.
func fillAttr(a *fuse.Attr, attr namespace.Attributes, uid, gid uint32) {
	a.Mode = attr.Mode
	a.Nlink = attr.Nlink
	a.Size = attr.Size
	a.Atime = attr.Atime
	a.Mtime = attr.Mtime
	a.Ctime = attr.Ctime
	a.Crtime = attr.Ctime
	a.Uid = uid
	a.Gid = gid
	a.BlockSize = attrBlockSize
}

func direntType(e namespace.DirEntry) fuse.DirentType {
	if e.Kind == state.KindDirectory {
		return fuse.DT_Dir
	}
	return fuse.DT_File
}
