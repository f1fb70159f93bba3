//go:build linux

package ringdev

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	c "devio/internal"
	"devio/internal/devio"
	"devio/internal/iomgr"
	"devio/internal/status"
	"devio/internal/util"

	"github.com/Masterminds/semver/v3"
	"github.com/cespare/xxhash"
	"github.com/fsnotify/fsnotify"
	"github.com/negrel/assert"
	"golang.org/x/sys/unix"
)

type Device struct {
	log			*slog.Logger
	cfg			Config
	file		*os.File
	fd			int
	version		*semver.Version

	mgr			*iomgr.IoMgr
	slab		[]byte
	slots		*util.TicketQueue[devio.ControlCode]

	watcher		*fsnotify.Watcher
	watchDone	chan struct{}

	// held shared while a request is dispatched, Close takes it before the slab
	// and ring go away
	gate		sync.RWMutex

	mu			sync.Mutex
	waiters		[]waiter
	closed		bool
}

type waiter struct {
	req		*devio.Request
	iosb	*devio.IoStatusBlock
}

func Open(path string, cfg Config) (*Device, error) {
	log := slog.With("src", "RingDev")

	if cfg.Version == "" { cfg.Version = VERSION }
	if cfg.StagingSlots <= 0 { cfg.StagingSlots = DefaultConfig().StagingSlots }
	version, err := semver.NewVersion(cfg.Version)
	if err != nil { return nil, err }

	flags := iomgr.F_OPEN_MODE
	if cfg.Direct { flags |= unix.O_DIRECT }
	file, err := os.OpenFile(path, flags, iomgr.F_OPEN_PERM)
	if err != nil { return nil, err }

	slab, err := iomgr.AllocSlab(c.SLOT_SIZE * cfg.StagingSlots)
	if err != nil {
		file.Close()
		return nil, err
	}

	mgr, err := iomgr.CreateIoMgr(iomgr.Config{
		RingEntries:	cfg.RingEntries,
		QueueSize:		cfg.QueueSize,
		RingCPU:		cfg.RingCPU,
	})
	if err != nil {
		iomgr.DeallocSlab(slab)
		file.Close()
		return nil, err
	}

	d := &Device{
		log:		log,
		cfg:		cfg,
		file:		file,
		fd:			int(file.Fd()),
		version:	version,
		mgr:		mgr,
		slab:		slab,
		slots:		util.CreateTicketQueue[devio.ControlCode](cfg.StagingSlots),
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(path)
		if err != nil { watcher.Close() }
	}
	if err != nil {
		log.Warn("change notifications disabled", "path", path, "err", err)
	} else {
		d.watcher = watcher
		d.watchDone = make(chan struct{})
		go d.watch()
	}

	log.Debug("Open", "path", path, "direct", cfg.Direct, "slots", cfg.StagingSlots, "version", version)
	return d, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	waiters := d.waiters
	d.waiters = nil
	d.mu.Unlock()

	for _, w := range waiters {
		w.iosb.Complete(status.StatusCancelled, 0)
	}

	d.gate.Lock()
	defer d.gate.Unlock()

	var errs []error
	if d.watcher != nil {
		errs = append(errs, d.watcher.Close())
		<-d.watchDone
	}
	d.mgr.Close()
	errs = append(errs, iomgr.DeallocSlab(d.slab))
	errs = append(errs, d.file.Close())
	return errors.Join(errs...)
}

func (d *Device) Path() string { return d.file.Name() }

func reject(iosb *devio.IoStatusBlock, st status.Status) status.Status {
	iosb.Complete(st, 0)
	return st
}

// enter admits one dispatch. The caller must call d.gate.RUnlock when ok.
func (d *Device) enter() (ok bool) {
	d.gate.RLock()
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		d.gate.RUnlock()
		return false
	}
	return true
}

func (d *Device) DeviceControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	if !d.enter() { return reject(iosb, status.StatusInvalidHandle) }
	defer d.gate.RUnlock()

	switch req.Code {
	case IOCTL_RINGDEV_NOP:
		return d.submit(&iomgr.Op{Opcode: iomgr.OpNop}, -1, iosb, nil)

	case IOCTL_RINGDEV_READ:
		if len(req.In) < c.LEN_U64 { return reject(iosb, status.StatusInvalidParameter) }
		off := c.Bin.Uint64(req.In)
		if len(req.Out) == 0 { return reject(iosb, status.StatusSuccess) }
		if !d.cfg.Direct {
			return d.submit(&iomgr.Op{Opcode: iomgr.OpRead, Buf: req.Out, Off: off}, -1, iosb, readResult(req.Out))
		}
		if !d.aligned(off, len(req.Out)) { return reject(iosb, status.StatusInvalidParameter) }
		ticket, slot, ok := d.acquire(req.Code)
		if !ok { return reject(iosb, status.StatusInsufficientResources) }
		buf := slot[:len(req.Out)]
		return d.submit(&iomgr.Op{Opcode: iomgr.OpRead, Buf: buf, Off: off}, ticket, iosb,
			func(res int32) (status.Status, uint32) {
				copy(req.Out, buf[:res])
				return readResult(req.Out)(res)
			})

	case IOCTL_RINGDEV_WRITE:
		if len(req.In) < c.LEN_U64 { return reject(iosb, status.StatusInvalidParameter) }
		off := c.Bin.Uint64(req.In)
		payload := req.In[c.LEN_U64:]
		if len(payload) == 0 { return reject(iosb, status.StatusSuccess) }
		if !d.cfg.Direct {
			return d.submit(&iomgr.Op{Opcode: iomgr.OpWrite, Buf: payload, Off: off}, -1, iosb, nil)
		}
		if !d.aligned(off, len(payload)) { return reject(iosb, status.StatusInvalidParameter) }
		ticket, slot, ok := d.acquire(req.Code)
		if !ok { return reject(iosb, status.StatusInsufficientResources) }
		buf := slot[:len(payload)]
		copy(buf, payload)
		return d.submit(&iomgr.Op{Opcode: iomgr.OpWrite, Buf: buf, Off: off}, ticket, iosb, nil)

	case IOCTL_RINGDEV_CHECKSUM:
		if len(req.In) < c.LEN_U64+c.LEN_U32 { return reject(iosb, status.StatusInvalidParameter) }
		if len(req.Out) < c.LEN_U64 { return reject(iosb, status.StatusBufferTooSmall) }
		off := c.Bin.Uint64(req.In)
		length := int(c.Bin.Uint32(req.In[c.LEN_U64:]))
		if length > c.SLOT_SIZE { return reject(iosb, status.StatusInvalidParameter) }
		if d.cfg.Direct && !d.aligned(off, length) { return reject(iosb, status.StatusInvalidParameter) }
		ticket, slot, ok := d.acquire(req.Code)
		if !ok { return reject(iosb, status.StatusInsufficientResources) }
		assert.GreaterOrEqual(len(slot), length, "staging slot smaller than request")
		buf := slot[:length]
		return d.submit(&iomgr.Op{Opcode: iomgr.OpRead, Buf: buf, Off: off}, ticket, iosb,
			func(res int32) (status.Status, uint32) {
				c.Bin.PutUint64(req.Out, xxhash.Sum64(buf[:res]))
				return status.StatusSuccess, c.LEN_U64
			})
	}

	return reject(iosb, status.StatusInvalidDeviceRequest)
}

func (d *Device) FsControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	if !d.enter() { return reject(iosb, status.StatusInvalidHandle) }
	defer d.gate.RUnlock()

	switch req.Code {
	case FSCTL_RINGDEV_FLUSH:
		return d.submit(&iomgr.Op{Opcode: iomgr.OpSync}, -1, iosb, nil)

	case FSCTL_RINGDEV_ALLOCATE:
		if len(req.In) < 2*c.LEN_U64 { return reject(iosb, status.StatusInvalidParameter) }
		off := c.Bin.Uint64(req.In)
		length := c.Bin.Uint64(req.In[c.LEN_U64:])
		if length == 0 { return reject(iosb, status.StatusInvalidParameter) }
		return d.submit(&iomgr.Op{Opcode: iomgr.OpAllocate, Off: off, Len: length}, -1, iosb, nil)

	case FSCTL_RINGDEV_QUERY_VERSION:
		return d.queryVersion(req, iosb)

	case FSCTL_RINGDEV_NOTIFY_CHANGE:
		if d.watcher == nil { return reject(iosb, status.StatusNotSupported) }
		if len(req.Out) < c.LEN_U32 { return reject(iosb, status.StatusBufferTooSmall) }
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return reject(iosb, status.StatusCancelled)
		}
		d.waiters = append(d.waiters, waiter{req: req, iosb: iosb})
		d.mu.Unlock()
		return status.StatusPending
	}

	return reject(iosb, status.StatusInvalidDeviceRequest)
}

func (d *Device) queryVersion(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	if len(req.In) > 0 {
		constraint, err := semver.NewConstraint(string(req.In))
		if err != nil { return reject(iosb, status.StatusInvalidParameter) }
		if !constraint.Check(d.version) { return reject(iosb, status.StatusRevisionMismatch) }
	}

	v := d.version.String()
	n := copy(req.Out, v)
	st := status.StatusSuccess
	if n < len(v) { st = status.StatusBufferOverflow }
	iosb.Complete(st, uint32(n))
	return st
}

func (d *Device) aligned(off uint64, length int) bool {
	return off%iomgr.ALIGN == 0 && uint64(length)%iomgr.ALIGN == 0 && length <= c.SLOT_SIZE
}

func (d *Device) acquire(code devio.ControlCode) (int, []byte, bool) {
	ticket, ok := d.slots.TryAcq(code)
	if !ok {
		d.log.Warn("out of staging slots", "code", code)
		return -1, nil, false
	}
	return ticket, d.slab[ticket*c.SLOT_SIZE : (ticket+1)*c.SLOT_SIZE], true
}

// submit hands op to the ring. The slot ticket (if any) is released before the
// request is completed. after turns a non-negative ring result into the final
// status and byte count.
func (d *Device) submit(op *iomgr.Op, ticket int, iosb *devio.IoStatusBlock,
	after func(res int32) (status.Status, uint32)) status.Status {

	release := func() {
		if ticket >= 0 { d.slots.Rel(ticket) }
	}

	op.Fd = d.fd
	op.Done = func(op *iomgr.Op) {
		var st status.Status
		var n uint32
		switch {
		case op.Res < 0:
			st = statusFromErrno(unix.Errno(-op.Res))
			d.log.Error("ring op failed", "op", op.Opcode, "errno", unix.Errno(-op.Res), "status", st)
		case after != nil:
			st, n = after(op.Res)
		default:
			st, n = status.StatusSuccess, uint32(op.Res)
		}
		release()
		iosb.Complete(st, n)
	}

	if !d.mgr.TrySubmit(op) {
		release()
		return reject(iosb, status.StatusInsufficientResources)
	}
	return status.StatusPending
}

func readResult(out []byte) func(res int32) (status.Status, uint32) {
	return func(res int32) (status.Status, uint32) {
		if res == 0 && len(out) > 0 {
			return status.StatusEndOfFile, 0
		}
		return status.StatusSuccess, uint32(res)
	}
}

func statusFromErrno(errno unix.Errno) status.Status {
	switch errno {
	case unix.EINVAL:				return status.StatusInvalidParameter
	case unix.EBADF:				return status.StatusInvalidHandle
	case unix.EIO:					return status.StatusIoDeviceError
	case unix.ENOSPC, unix.EDQUOT:	return status.StatusDiskFull
	case unix.EACCES, unix.EPERM:	return status.StatusAccessDenied
	case unix.ENOMEM:				return status.StatusNoMemory
	case unix.EOPNOTSUPP, unix.ENOSYS:	return status.StatusNotSupported
	case unix.ECANCELED:			return status.StatusCancelled
	case unix.EAGAIN, unix.EBUSY:	return status.StatusDeviceBusy
	}
	return status.StatusUnsuccessful
}

func (d *Device) watch() {
	defer close(d.watchDone)
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok { return }
			var mask uint32
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 { mask |= CHANGE_WRITE }
			if ev.Op&fsnotify.Chmod != 0 { mask |= CHANGE_ATTRIB }
			if ev.Op&fsnotify.Remove != 0 { mask |= CHANGE_REMOVE }
			if ev.Op&fsnotify.Rename != 0 { mask |= CHANGE_RENAME }
			if mask == 0 { continue }
			d.notify(mask)
		case err, ok := <-d.watcher.Errors:
			if !ok { return }
			d.log.Error("watcher", "err", err)
		}
	}
}

func (d *Device) notify(mask uint32) {
	d.mu.Lock()
	waiters := d.waiters
	d.waiters = nil
	d.mu.Unlock()

	for _, w := range waiters {
		c.Bin.PutUint32(w.req.Out, mask)
		w.iosb.Complete(status.StatusSuccess, c.LEN_U32)
	}
}
