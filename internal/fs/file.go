package fs

import (
	"context"
	"time"

	"nullfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// File represents a path registered with create. It has no content.
type File struct {
	fs   *NullFS
	path *VirtualPath
}

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q", f.path.String())

	attr, err := f.fs.ops.Getattr(f.path.String())
	if err != nil {
		return ToFuseError(err)
	}
	fillAttr(a, attr, f.fs.uid, f.fs.gid)
	return nil
}

// Open implements the NodeOpener interface. Opening never fails; the handle
// rejects every read and write.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	fileLogger.Debug("Opening file %q with flags %v", f.path.String(), req.Flags)

	if err := f.fs.ops.Open(f.path.String()); err != nil {
		return nil, ToFuseError(err)
	}

	// Keep the page cache out of it so every read reaches us.
	resp.Flags |= fuse.OpenDirectIO
	return &FileHandle{fs: f.fs, path: f.path}, nil
}

// Setattr implements the NodeSetattrer interface.
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if err := setattr(f.fs, f.path, req); err != nil {
		return err
	}
	return f.Attr(ctx, &resp.Attr)
}

// setattr splits a FUSE setattr into the truncate, chmod, chown and utimens
// operations it carries.
func setattr(nfs *NullFS, vp *VirtualPath, req *fuse.SetattrRequest) error {
	p := vp.String()
	fileLogger.Debug("Setattr on %q (valid=%v)", p, req.Valid)

	if req.Valid.Size() {
		if err := nfs.ops.Truncate(p, req.Size); err != nil {
			return ToFuseError(err)
		}
	}
	if req.Valid.Mode() {
		if err := nfs.ops.Chmod(p, uint32(req.Mode.Perm())); err != nil {
			return ToFuseError(err)
		}
	}
	if req.Valid.Uid() || req.Valid.Gid() {
		if err := nfs.ops.Chown(p, req.Uid, req.Gid); err != nil {
			return ToFuseError(err)
		}
	}
	if req.Valid.Atime() || req.Valid.Mtime() {
		atime, mtime := req.Atime, req.Mtime
		now := time.Now()
		if req.Valid.AtimeNow() {
			atime = now
		}
		if req.Valid.MtimeNow() {
			mtime = now
		}
		if err := nfs.ops.Utimens(p, atime, mtime); err != nil {
			return ToFuseError(err)
		}
	}
	return nil
}

// FileHandle is an open file. It never returns or accepts content.
type FileHandle struct {
	fs   *NullFS
	path *VirtualPath
}

// Read implements the HandleReader interface. It always fails.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, _ *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d",
		req.Size, fh.path.String(), req.Offset)

	_, err := fh.fs.ops.Read(fh.path.String(), req.Offset, req.Size)
	return ToFuseError(err)
}

// Write implements the HandleWriter interface. It always fails.
func (fh *FileHandle) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	fileLogger.Trace("Writing %d bytes to file %q at offset %d",
		len(req.Data), fh.path.String(), req.Offset)

	n, err := fh.fs.ops.Write(fh.path.String(), req.Offset, req.Data)
	resp.Size = n
	return ToFuseError(err)
}
