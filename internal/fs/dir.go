package fs

import (
	"context"
	"syscall"

	"nullfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir represents a directory in the mount: the root or a path registered
// with mkdir.
type Dir struct {
	fs   *NullFS
	path *VirtualPath
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path.String())

	attr, err := d.fs.ops.Getattr(d.path.String())
	if err != nil {
		return ToFuseError(err)
	}
	fillAttr(a, attr, d.fs.uid, d.fs.gid)
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	childPath := d.path.Child(name)
	dirLogger.Debug("Looking up %q", childPath.String())

	attr, err := d.fs.ops.Getattr(childPath.String())
	if err != nil {
		return nil, ToFuseError(err)
	}
	if attr.IsDir() {
		return &Dir{fs: d.fs, path: childPath}, nil
	}
	return &File{fs: d.fs, path: childPath}, nil
}

// ReadDirAll implements the HandleReadDirAller interface, listing directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path.String())

	entries, err := d.fs.ops.Readdir(d.path.String())
	if err != nil {
		return nil, ToFuseError(err)
	}

	dirents := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		dirents = append(dirents, fuse.Dirent{Name: e.Name, Type: direntType(e)})
	}
	return dirents, nil
}

// Mkdir implements the NodeMkdirer interface, registering a new directory.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	newPath := d.path.Child(req.Name)
	dirLogger.Info("Creating directory %q", newPath.String())

	if err := d.fs.ops.Mkdir(newPath.String()); err != nil {
		dirLogger.Debug("Mkdir %q failed: %v", newPath.String(), err)
		return nil, ToFuseError(err)
	}
	return &Dir{fs: d.fs, path: newPath}, nil
}

// Create implements the NodeCreater interface, registering a new file and
// opening it.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	newPath := d.path.Child(req.Name)
	dirLogger.Info("Creating file %q", newPath.String())

	if err := d.fs.ops.Create(newPath.String()); err != nil {
		dirLogger.Debug("Create %q failed: %v", newPath.String(), err)
		return nil, nil, ToFuseError(err)
	}
	if err := d.fs.ops.Open(newPath.String()); err != nil {
		return nil, nil, ToFuseError(err)
	}

	resp.Flags |= fuse.OpenDirectIO
	f := &File{fs: d.fs, path: newPath}
	return f, &FileHandle{fs: d.fs, path: newPath}, nil
}

// Remove implements the NodeRemover interface for unlink and rmdir.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	childPath := d.path.Child(req.Name)
	dirLogger.Info("Removing %q (isDir=%v)", childPath.String(), req.Dir)

	var err error
	if req.Dir {
		err = d.fs.ops.Rmdir(childPath.String())
	} else {
		err = d.fs.ops.Unlink(childPath.String())
	}
	return ToFuseError(err)
}

// Rename implements the NodeRenamer interface.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	target, ok := newDir.(*Dir)
	if !ok {
		dirLogger.Error("Target is not a valid directory type")
		return syscall.EINVAL
	}

	oldPath := d.path.Child(req.OldName)
	newPath := target.path.Child(req.NewName)
	dirLogger.Info("Renaming %q to %q", oldPath.String(), newPath.String())

	return ToFuseError(d.fs.ops.Rename(oldPath.String(), newPath.String()))
}

// Setattr implements the NodeSetattrer interface.
func (d *Dir) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if err := setattr(d.fs, d.path, req); err != nil {
		return err
	}
	return d.Attr(ctx, &resp.Attr)
}
