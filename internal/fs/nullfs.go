package fs

import (
	"context"
	"fmt"

	"nullfs/internal/logging"
	"nullfs/internal/namespace"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	vfsLogger = logging.GetLogger().WithPrefix("vfs")
)

// NullFS is the FUSE side of a nullfs mount. Every kernel request is turned
// into a call on the dispatcher, which owns the namespace.
type NullFS struct {
	ops  *namespace.Dispatcher
	conn *fuse.Conn
	uid  uint32 // owner reported for every node
	gid  uint32 // group reported for every node
}

// NewNullFS creates the FUSE filesystem for ops.
func NewNullFS(ops *namespace.Dispatcher, uid, gid uint32) *NullFS {
	vfsLogger.Debug("Creating filesystem (uid=%d, gid=%d)", uid, gid)
	return &NullFS{
		ops: ops,
		uid: uid,
		gid: gid,
	}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (nfs *NullFS) Root() (fusefs.Node, error) {
	vfsLogger.Trace("Getting root directory node")
	return &Dir{
		fs:   nfs,
		path: NewVirtualPath("/"),
	}, nil
}

// Statfs implements the fusefs.FSStatfser interface.
func (nfs *NullFS) Statfs(_ context.Context, _ *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	res := nfs.ops.Statfs("/")
	resp.Bsize = res.BlockSize
	resp.Frsize = res.FragmentSize
	resp.Blocks = res.Blocks
	resp.Bfree = res.BlocksFree
	resp.Bavail = res.BlocksAvail
	resp.Files = res.Files
	resp.Ffree = res.FilesFree
	resp.Namelen = res.NameLen
	return nil
}

// MountOptions configures Mount.
type MountOptions struct {
	AllowOther bool
}

// Mount attaches the filesystem to mountPoint. Serve must be called to
// answer requests.
func (nfs *NullFS) Mount(mountPoint string, opts MountOptions) error {
	vfsLogger.Info("Mounting filesystem on %s", mountPoint)

	mountOpts := []fuse.MountOption{
		fuse.FSName("nullfs"),
		fuse.Subtype("nullfs"),
	}
	if opts.AllowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	nfs.conn = c
	return nil
}

// Serve answers FUSE requests until the filesystem is unmounted. When debug is
// set it receives every FUSE message.
func (nfs *NullFS) Serve(debug func(msg interface{})) error {
	if nfs.conn == nil {
		return fmt.Errorf("filesystem is not mounted")
	}

	srv := fusefs.New(nfs.conn, &fusefs.Config{Debug: debug})
	vfsLogger.Info("Serving filesystem...")
	if err := srv.Serve(nfs); err != nil {
		return fmt.Errorf("FUSE server error: %w", err)
	}
	vfsLogger.Debug("FUSE server stopped")
	return nil
}

// Unmount detaches the filesystem. A running Serve returns afterwards.
func (nfs *NullFS) Unmount(mountPoint string) error {
	vfsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if nfs.conn == nil {
		return nil
	}

	if err := fuse.Unmount(mountPoint); err != nil {
		vfsLogger.Error("Unmount failed: %v", err)
		return err
	}
	vfsLogger.Info("Unmount completed successfully")
	return nil
}

// Close releases the FUSE connection and shuts down the namespace.
func (nfs *NullFS) Close() error {
	var connErr error
	if nfs.conn != nil {
		connErr = nfs.conn.Close()
		nfs.conn = nil
	}
	if err := nfs.ops.Close(); err != nil {
		return err
	}
	return connErr
}
