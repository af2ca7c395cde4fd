package fs

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"nullfs/internal/namespace"

	"bazil.org/fuse"
)

func setupTestFS(t *testing.T, opts namespace.Options) (*NullFS, func()) {
	if opts.DirCapacity == 0 {
		opts.DirCapacity = 8
	}
	if opts.FileCapacity == 0 {
		opts.FileCapacity = 8
	}

	ops, err := namespace.New(opts)
	if err != nil {
		t.Fatalf("Failed to create dispatcher: %v", err)
	}

	nfs := NewNullFS(ops, 1000, 1000)
	cleanup := func() {
		if err := nfs.Close(); err != nil {
			t.Errorf("Failed to close filesystem: %v", err)
		}
	}
	return nfs, cleanup
}

func rootDir(t *testing.T, nfs *NullFS) *Dir {
	root, err := nfs.Root()
	if err != nil {
		t.Fatalf("Failed to get root: %v", err)
	}
	dir, ok := root.(*Dir)
	if !ok {
		t.Fatal("Root should be a Dir")
	}
	return dir
}

func TestDirOperations(t *testing.T) {
	nfs, cleanup := setupTestFS(t, namespace.Options{})
	defer cleanup()

	ctx := context.Background()

	t.Run("RootDirectory", func(t *testing.T) {
		dir := rootDir(t, nfs)

		attr := &fuse.Attr{}
		if err := dir.Attr(ctx, attr); err != nil {
			t.Fatalf("Failed to get root attributes: %v", err)
		}
		if attr.Mode&os.ModeDir == 0 {
			t.Error("Root should be a directory")
		}
		if attr.Mode.Perm() != 0o777 {
			t.Errorf("Expected root permissions 0777, got %o", attr.Mode.Perm())
		}
		if attr.Nlink != 2 {
			t.Errorf("Expected nlink 2, got %d", attr.Nlink)
		}
		if attr.Uid != 1000 || attr.Gid != 1000 {
			t.Errorf("Expected uid/gid 1000/1000, got %d/%d", attr.Uid, attr.Gid)
		}

		entries, err := dir.ReadDirAll(ctx)
		if err != nil {
			t.Fatalf("Failed to read root directory: %v", err)
		}
		if len(entries) != 2 || entries[0].Name != "." || entries[1].Name != ".." {
			t.Errorf("Expected [. ..], got %v", entries)
		}
	})

	t.Run("CreateDirectory", func(t *testing.T) {
		dir := rootDir(t, nfs)

		newDir, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "newdir"})
		if err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		dirAttr := &fuse.Attr{}
		if err := newDir.Attr(ctx, dirAttr); err != nil {
			t.Errorf("Failed to get new directory attributes: %v", err)
		}
		if dirAttr.Mode&os.ModeDir == 0 {
			t.Error("Created node should be a directory")
		}

		found, err := dir.Lookup(ctx, "newdir")
		if err != nil {
			t.Fatalf("Failed to lookup new directory: %v", err)
		}
		if _, ok := found.(*Dir); !ok {
			t.Errorf("Expected *Dir from lookup, got %T", found)
		}

		entries, err := found.(*Dir).ReadDirAll(ctx)
		if err != nil {
			t.Fatalf("Failed to read new directory: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(entries))
		}
	})

	t.Run("DuplicateDirectory", func(t *testing.T) {
		dir := rootDir(t, nfs)

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "twice"}); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		_, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "twice"})
		if !errors.Is(err, syscall.EEXIST) {
			t.Errorf("Expected EEXIST, got %v", err)
		}
	})

	t.Run("CreateNestedDirectory", func(t *testing.T) {
		dir := rootDir(t, nfs)

		parent, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "parent"})
		if err != nil {
			t.Fatalf("Failed to create parent directory: %v", err)
		}
		if _, err := parent.(*Dir).Mkdir(ctx, &fuse.MkdirRequest{Name: "child"}); err != nil {
			t.Fatalf("Failed to create child directory: %v", err)
		}

		found, err := dir.Lookup(ctx, "parent")
		if err != nil {
			t.Fatalf("Failed to lookup parent directory: %v", err)
		}
		if _, err := found.(*Dir).Lookup(ctx, "child"); err != nil {
			t.Errorf("Failed to lookup child directory: %v", err)
		}

		// Children are not listed.
		entries, _ := found.(*Dir).ReadDirAll(ctx)
		if len(entries) != 2 {
			t.Errorf("Expected only . and .., got %v", entries)
		}
	})

	t.Run("LookupMissing", func(t *testing.T) {
		dir := rootDir(t, nfs)

		_, err := dir.Lookup(ctx, "missing")
		if !errors.Is(err, syscall.ENOENT) {
			t.Errorf("Expected ENOENT, got %v", err)
		}
	})

	t.Run("RemoveIsIgnored", func(t *testing.T) {
		dir := rootDir(t, nfs)

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "todelete"}); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "todelete", Dir: true}); err != nil {
			t.Fatalf("Remove should succeed: %v", err)
		}
		if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "never-existed"}); err != nil {
			t.Fatalf("Remove of a missing file should succeed: %v", err)
		}
		if _, err := dir.Lookup(ctx, "todelete"); err != nil {
			t.Errorf("Directory should still exist after remove: %v", err)
		}
	})

	t.Run("RenameIsIgnored", func(t *testing.T) {
		dir := rootDir(t, nfs)

		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "olddirname"}); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		err := dir.Rename(ctx, &fuse.RenameRequest{OldName: "olddirname", NewName: "newdirname"}, dir)
		if err != nil {
			t.Errorf("Rename should succeed: %v", err)
		}
		if _, err := dir.Lookup(ctx, "olddirname"); err != nil {
			t.Error("Old name should still exist after rename")
		}
		if _, err := dir.Lookup(ctx, "newdirname"); err == nil {
			t.Error("New name should not exist after rename")
		}
	})

	t.Run("Statfs", func(t *testing.T) {
		resp := &fuse.StatfsResponse{}
		if err := nfs.Statfs(ctx, &fuse.StatfsRequest{}, resp); err != nil {
			t.Fatalf("Statfs failed: %v", err)
		}
		if resp.Bsize != 1024 {
			t.Errorf("Expected block size 1024, got %d", resp.Bsize)
		}
		if resp.Blocks != 1<<30 || resp.Bfree != 1<<30 || resp.Bavail != 1<<30 || resp.Ffree != 1<<30 {
			t.Errorf("Unexpected capacity figures: %+v", resp)
		}
		if resp.Files != 0 {
			t.Errorf("Expected 0 files, got %d", resp.Files)
		}
	})
}

func TestDirEviction(t *testing.T) {
	nfs, cleanup := setupTestFS(t, namespace.Options{DirCapacity: 2})
	defer cleanup()

	ctx := context.Background()
	dir := rootDir(t, nfs)

	for _, name := range []string{"first", "second", "third"} {
		if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: name}); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	if _, err := dir.Lookup(ctx, "first"); !errors.Is(err, syscall.ENOENT) {
		t.Errorf("Expected first directory to be forgotten, got %v", err)
	}
	if _, err := dir.Lookup(ctx, "third"); err != nil {
		t.Errorf("Expected third directory to exist: %v", err)
	}
}

func TestDirTrackRemovals(t *testing.T) {
	nfs, cleanup := setupTestFS(t, namespace.Options{TrackRemovals: true})
	defer cleanup()

	ctx := context.Background()
	dir := rootDir(t, nfs)

	if _, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "src"}); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	target, err := dir.Mkdir(ctx, &fuse.MkdirRequest{Name: "target"})
	if err != nil {
		t.Fatalf("Failed to create target directory: %v", err)
	}

	err = dir.Rename(ctx, &fuse.RenameRequest{OldName: "src", NewName: "moved"}, target)
	if err != nil {
		t.Fatalf("Failed to rename directory: %v", err)
	}
	if _, err := dir.Lookup(ctx, "src"); !errors.Is(err, syscall.ENOENT) {
		t.Errorf("Old name should be gone, got %v", err)
	}
	if _, err := target.(*Dir).Lookup(ctx, "moved"); err != nil {
		t.Errorf("New name should exist: %v", err)
	}

	if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "target", Dir: true}); err != nil {
		t.Fatalf("Failed to remove directory: %v", err)
	}
	if _, err := dir.Lookup(ctx, "target"); !errors.Is(err, syscall.ENOENT) {
		t.Errorf("Removed directory should be gone, got %v", err)
	}
	if err := dir.Remove(ctx, &fuse.RemoveRequest{Name: "target", Dir: true}); !errors.Is(err, syscall.ENOENT) {
		t.Errorf("Expected ENOENT removing twice, got %v", err)
	}
}
