package namespace

import (
	"time"

	"nullfs/internal/logging"
	"nullfs/internal/metrics"
	"nullfs/internal/state"
)

var (
	nsLogger = logging.GetLogger().WithPrefix("namespace")
)

// Statfs figures. They describe a nearly unlimited filesystem so tools that
// check for free space before writing do not give up.
const (
	statfsBlockSize = 1024
	statfsCapacity  = 1024 * 1024 * 1024
	statfsNameLen   = 255
)

// Options configures a Dispatcher.
type Options struct {
	DirCapacity  int
	FileCapacity int

	// MaxPathLength rejects longer paths on create and mkdir. Zero
	// disables the check.
	MaxPathLength int

	// TrackRemovals makes unlink, rmdir and rename change the registries.
	// When false they succeed without effect.
	TrackRemovals bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// StatfsResult holds the fixed figures reported by Statfs.
type StatfsResult struct {
	BlockSize    uint32
	FragmentSize uint32
	Blocks       uint64
	BlocksFree   uint64
	BlocksAvail  uint64
	Files        uint64
	FilesFree    uint64
	FilesAvail   uint64
	NameLen      uint32
}

// Dispatcher executes filesystem operations against the mount's state.
//
// Only Create and Mkdir (and, with TrackRemovals, Unlink, Rmdir and Rename)
// change the namespace. Content and metadata operations never do.
type Dispatcher struct {
	state *state.State
	opts  Options
}

// New creates the state for a mount and a dispatcher owning it.
func New(opts Options) (*Dispatcher, error) {
	st, err := state.New(state.Options{
		DirCapacity:  opts.DirCapacity,
		FileCapacity: opts.FileCapacity,
		Now:          opts.Now,
		OnEvict: func(kind state.Kind, path string) {
			nsLogger.Warn("%s registry full, forgetting %q", kind, path)
			metrics.RecordEviction(kind.String())
		},
	})
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{state: st, opts: opts}
	d.updateGauges()
	nsLogger.Debug("Dispatcher created (maxPath=%d, trackRemovals=%v)",
		opts.MaxPathLength, opts.TrackRemovals)
	return d, nil
}

// State returns the state owned by the dispatcher.
func (d *Dispatcher) State() *state.State {
	return d.state
}

// Close shuts down the state. Later mutations fail with ErrClosed.
func (d *Dispatcher) Close() error {
	return d.state.Close()
}

// track starts timing an operation. The returned func records the outcome
// held in *errp; it is meant to be deferred with a pointer to a named result.
func (d *Dispatcher) track(op, path string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		d.observe(op, path, start, *errp)
	}
}

// observe records metrics and logs the outcome of one operation.
func (d *Dispatcher) observe(op, path string, start time.Time, err error) {
	metrics.RecordOperation(op, err, time.Since(start))
	if err != nil {
		nsLogger.Debug("%s %q: %v", op, path, err)
		return
	}
	nsLogger.Trace("%s %q: ok", op, path)
}

func (d *Dispatcher) updateGauges() {
	metrics.SetRegistryEntries(state.KindDirectory.String(), d.state.Count(state.KindDirectory))
	metrics.SetRegistryEntries(state.KindFile.String(), d.state.Count(state.KindFile))
}

// Getattr returns the attributes of path.
func (d *Dispatcher) Getattr(path string) (attr Attributes, err error) {
	defer d.track(OpGetattr, path)(&err)

	attr, err = resolve(d.state, path)
	if err != nil {
		return Attributes{}, NewError(OpGetattr, path, err)
	}
	return attr, nil
}

// Readdir lists a directory. Every directory lists exactly "." and "..".
func (d *Dispatcher) Readdir(path string) (entries []DirEntry, err error) {
	defer d.track(OpReaddir, path)(&err)

	entries, err = list(d.state, path)
	if err != nil {
		return nil, NewError(OpReaddir, path, err)
	}
	return entries, nil
}

// Open always succeeds. There are no handles to track.
func (d *Dispatcher) Open(path string) error {
	d.observe(OpOpen, path, time.Now(), nil)
	return nil
}

// Read always fails: no content is stored.
func (d *Dispatcher) Read(path string, offset int64, size int) ([]byte, error) {
	err := NewError(OpRead, path, ErrUnsupported)
	d.observe(OpRead, path, time.Now(), err)
	return nil, err
}

// Write always fails with ErrNotFound, whether or not path exists.
func (d *Dispatcher) Write(path string, offset int64, data []byte) (int, error) {
	err := NewError(OpWrite, path, ErrNotFound)
	d.observe(OpWrite, path, time.Now(), err)
	return 0, err
}

// Create registers path as a file.
func (d *Dispatcher) Create(path string) (err error) {
	defer d.track(OpCreate, path)(&err)
	return d.register(OpCreate, path, state.KindFile)
}

// Mkdir registers path as a directory.
func (d *Dispatcher) Mkdir(path string) (err error) {
	defer d.track(OpMkdir, path)(&err)
	return d.register(OpMkdir, path, state.KindDirectory)
}

func (d *Dispatcher) register(op, path string, kind state.Kind) error {
	if d.opts.MaxPathLength > 0 && len(path) > d.opts.MaxPathLength {
		return NewError(op, path, ErrNameTooLong)
	}
	if err := d.state.Register(path, kind); err != nil {
		return NewError(op, path, err)
	}
	d.updateGauges()
	nsLogger.Debug("Registered %s %q", kind, path)
	return nil
}

// Unlink removes a file. Without TrackRemovals it succeeds and changes
// nothing.
func (d *Dispatcher) Unlink(path string) (err error) {
	defer d.track(OpUnlink, path)(&err)
	return d.remove(OpUnlink, path, state.KindFile)
}

// Rmdir removes a directory. Without TrackRemovals it behaves like Unlink.
func (d *Dispatcher) Rmdir(path string) (err error) {
	defer d.track(OpRmdir, path)(&err)
	return d.remove(OpRmdir, path, state.KindDirectory)
}

func (d *Dispatcher) remove(op, path string, kind state.Kind) error {
	if !d.opts.TrackRemovals {
		return nil
	}
	if err := d.state.Remove(path, kind); err != nil {
		return NewError(op, path, err)
	}
	d.updateGauges()
	nsLogger.Debug("Removed %s %q", kind, path)
	return nil
}

// Rename moves src to dst. Without TrackRemovals it succeeds and changes
// nothing.
func (d *Dispatcher) Rename(src, dst string) (err error) {
	defer d.track(OpRename, src)(&err)

	if !d.opts.TrackRemovals {
		return nil
	}
	if d.opts.MaxPathLength > 0 && len(dst) > d.opts.MaxPathLength {
		return NewError(OpRename, dst, ErrNameTooLong)
	}
	if err := d.state.Move(src, dst); err != nil {
		return NewError(OpRename, src, err)
	}
	d.updateGauges()
	nsLogger.Debug("Renamed %q to %q", src, dst)
	return nil
}

// Truncate succeeds without effect; files have no size.
func (d *Dispatcher) Truncate(path string, size uint64) error {
	d.observe(OpTruncate, path, time.Now(), nil)
	return nil
}

// Chmod succeeds without effect; modes are fixed.
func (d *Dispatcher) Chmod(path string, mode uint32) error {
	d.observe(OpChmod, path, time.Now(), nil)
	return nil
}

// Chown succeeds without effect; ownership is fixed.
func (d *Dispatcher) Chown(path string, uid, gid uint32) error {
	d.observe(OpChown, path, time.Now(), nil)
	return nil
}

// Utimens succeeds without effect; timestamps come from the mount clock.
func (d *Dispatcher) Utimens(path string, atime, mtime time.Time) error {
	d.observe(OpUtimens, path, time.Now(), nil)
	return nil
}

// Statfs returns the fixed filesystem figures.
func (d *Dispatcher) Statfs(path string) StatfsResult {
	d.observe(OpStatfs, path, time.Now(), nil)
	return StatfsResult{
		BlockSize:   statfsBlockSize,
		Blocks:      statfsCapacity,
		BlocksFree:  statfsCapacity,
		BlocksAvail: statfsCapacity,
		FilesFree:   statfsCapacity,
		FilesAvail:  statfsCapacity,
		NameLen:     statfsNameLen,
	}
}
