//go:build linux

package iomgr

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/aethne0/giouring"
	"github.com/negrel/assert"
	"golang.org/x/sys/unix"
)

// PERF:
// 1. read/write fixed
// 2. register buffer
// 3. register file
// Completions are reaped on a single goroutine, one ring per manager.

const ALIGN			= uint64(0x1000)
const MMAP_MODE   	= unix.MAP_ANON  | unix.MAP_PRIVATE
const MMAP_PROT   	= unix.PROT_READ | unix.PROT_WRITE
const F_OPEN_MODE 	= unix.O_RDWR | unix.O_CREAT
const F_OPEN_PERM 	= 0b_000_110_100_000
const RING_ENTRIES 	= 0x80
const RING_DPTHTRG	= 0x40
const OP_Q_SIZE		= 0x100

var ErrClosed = errors.New("iomgr: closed")

// For fixed/aligned buffers - not for io_uring itself, liburing handles mmap-ing for
// io_uring setup. This allocation will be aligned to the system page size (check using:
// `getconf PAGESIZE`. This will basically always be 0x1000 (4096))
func AllocSlab(size int) ([]byte, error) {
	raw, err := unix.Mmap(-1, 0, int(size), MMAP_PROT, MMAP_MODE)
	if err != nil {
		slog.Error("AllocSlab", "err", err)
	}
	return raw, err
}

func DeallocSlab(ptr []byte) error {
	err := unix.Munmap(ptr)
	if err != nil {
		slog.Error("DeallocSlab", "err", err)
	}
	return err
}

type Config struct {
	RingEntries	uint32
	QueueSize	int
	// CPU the ring goroutine is pinned to, -1 leaves scheduling alone
	RingCPU		int
}

func DefaultConfig() Config {
	return Config{
		RingEntries:	RING_ENTRIES,
		QueueSize:		OP_Q_SIZE,
		RingCPU:		-1,
	}
}

type IoMgr struct {
	log			*slog.Logger
	cfg			Config
	ring 		*giouring.Ring
	opQueue		chan *Op
	opSem		chan struct{}

	closeOnce	sync.Once
	closed		atomic.Bool
	exited		chan struct{}

	// owned by the ringlord goroutine
	inflight	map[uint64]*Op
	nextTag		uint64
}

func CreateIoMgr(cfg Config) (*IoMgr, error) {
	if cfg.RingEntries == 0 { cfg.RingEntries = RING_ENTRIES }
	if cfg.QueueSize == 0 { cfg.QueueSize = OP_Q_SIZE }

	ring, err := giouring.CreateRing(cfg.RingEntries)
	if err != nil { return nil, err }

	iomgr := IoMgr {
		log: 		slog.With("src", "IoMgr"),
		cfg:		cfg,
		ring: 		ring,
		opQueue: 	make(chan *Op, cfg.QueueSize),
		opSem: 		make(chan struct{}, cfg.RingEntries),
		exited:		make(chan struct{}),
		inflight:	make(map[uint64]*Op, cfg.RingEntries),
	}

	go iomgr.ringlord()
	return &iomgr, nil
}

// Close waits for every submitted op to complete, then tears the ring down.
// Submitting concurrently with Close is not allowed.
func (m *IoMgr) Close() {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.opQueue <- nil
		<-m.exited
		m.ring.QueueExit()
	})
}

type OpCode uint16
const (
	OpNop 	OpCode = iota
	OpWrite
	OpRead
	OpSync
	OpAllocate
)

func (o OpCode) String() string {
	switch o {
	case OpNop: 		return "NOP"
	case OpWrite: 		return "WRITE"
	case OpRead: 		return "READ"
	case OpSync: 		return "FSYNC"
	case OpAllocate: 	return "FALLOCATE"
	}
	return "INVALID"
}

// An Op is one unit of work for the ring. A write with Sync set is linked to an
// fsync and completes when both are done (or the first one fails).
type Op struct {
	Fd		int
	Opcode	OpCode
	Buf		[]byte // read/write target, must stay valid until Done
	Off		uint64
	Len		uint64 // OpAllocate only
	Sync	bool

	// Result of the first failing SQE, or of the last one. -errno on failure.
	Res		int32

	// Called on the ring goroutine once Res is set. Must not block.
	Done	func(op *Op)
	// Signaled after Done if non-nil, buffered by the caller
	Ch 		chan struct{}

	count	uint16
	seen	uint16
	first	int32
	done 	bool
}

func (op *Op) sqeCount() int {
	if op.Opcode == OpWrite && op.Sync { return 2 }
	return 1
}

// Submit blocks until the ring has room for op.
func (m *IoMgr) Submit(op *Op) error {
	if m.closed.Load() { return ErrClosed }
	for range op.sqeCount() {
		m.opSem <- struct{}{}
	}
	m.opQueue <- op
	return nil
}

// TrySubmit is Submit without waiting. It reports false when the ring or queue is full.
func (m *IoMgr) TrySubmit(op *Op) bool {
	if m.closed.Load() { return false }
	n := op.sqeCount()
	for i := range n {
		select {
		case m.opSem <- struct{}{}:
		default:
			for range i { <-m.opSem }
			return false
		}
	}
	select {
	case m.opQueue <- op:
		return true
	default:
		for range n { <-m.opSem }
		return false
	}
}

func bufAddr(b []byte) uintptr {
	if len(b) == 0 { return 0 }
	return uintptr(unsafe.Pointer(&b[0]))
}

func (m *IoMgr) prepSQEs(op *Op) uint {
	op.done = false
	op.seen = 0
	op.count = uint16(op.sqeCount())

	m.nextTag++
	tag := m.nextTag
	m.inflight[tag] = op

	switch op.Opcode {
	case OpNop:
		sqe := m.ring.GetSQE()
		sqe.PrepareNop()
		sqe.UserData = tag

	case OpWrite:
		sqe := m.ring.GetSQE()
		sqe.PrepareWrite(op.Fd, bufAddr(op.Buf), uint32(len(op.Buf)), op.Off)
		sqe.UserData = tag
		if op.Sync {
			sqe.Flags |= giouring.SqeIOLink
			sqe := m.ring.GetSQE()
			sqe.PrepareFsync(op.Fd, 0)
			sqe.UserData = tag
		}

	case OpRead:
		sqe := m.ring.GetSQE()
		sqe.PrepareRead(op.Fd, bufAddr(op.Buf), uint32(len(op.Buf)), op.Off)
		sqe.UserData = tag

	case OpSync:
		sqe := m.ring.GetSQE()
		sqe.PrepareFsync(op.Fd, 0)
		sqe.UserData = tag

	case OpAllocate:
		sqe := m.ring.GetSQE()
		sqe.PrepareFallocate(op.Fd, 0, op.Off, op.Len)
		sqe.UserData = tag

	default:
		m.log.Warn("Invalid opcode", "opcode", op.Opcode)
		delete(m.inflight, tag)
		for range op.count { <-m.opSem }
		m.finish(op, -int32(unix.EINVAL))
		return 0
	}
	return uint(op.count)
}

func (m *IoMgr) finish(op *Op, res int32) {
	atomic.StoreInt32(&op.Res, res)
	op.done = true
	if op.Done != nil { op.Done(op) }
	if op.Ch != nil { op.Ch <- struct{}{} }
}

// "Those who sow the good seed
// Shall surely reap"
func (m *IoMgr) ringlord() {
	defer close(m.exited)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if m.cfg.RingCPU >= 0 {
		var cpuSet unix.CPUSet
		cpuSet.Zero()
		cpuSet.Set(m.cfg.RingCPU)
		err := unix.SchedSetaffinity(0, &cpuSet)
		if err != nil { m.log.Warn("Couldn't set core affinity for ring manager", "cpu", m.cfg.RingCPU) }
	}

	var queued   uint = 0 // SQEs that we have "got" and prepared from the opQueue
	var inflight uint = 0 // SQEs that have been SUBMITTED
	closing := false

	take := func(op *Op) {
		if op == nil {
			closing = true
			return
		}
		queued += m.prepSQEs(op)
	}

	// Main loop, three phases:
	// 1. collect submitted ops from the opQueue and get+prepare SQEs
	// 2. submit to the submission-queue
	// 3. reap completed CQEs
	for {
		// STAGE 1
		if inflight == 0 && queued == 0 {
			if closing { return }
			// Nothing to reap, block until at least one op shows up
			take(<- m.opQueue)
		}
		COLLECT: for !closing {
			select {
			case op := <- m.opQueue:
				take(op)
			default:
				break COLLECT
			}
		}

		// STAGE 2
		if queued > 0 || inflight > 0 {
			var submitted uint
			var err error
			if queued == 0 || inflight + queued > RING_DPTHTRG {
				// nothing new to hand over, park until the kernel completes something
				submitted, err = m.ring.SubmitAndWait(1)
			} else {
				submitted, err = m.ring.Submit()
			}
			if err != nil && err != unix.ETIME && err != unix.EINTR {
				m.log.Error("Submit", "err", err)
			}
			queued   -= submitted
			inflight += submitted
		}

		// STAGE 3
		for inflight > 0 {
			cqe, err := m.ring.PeekCQE()
			if err == unix.EAGAIN || err == unix.EINTR || err == unix.ETIME {
				break
			} else if err != nil {
				m.log.Error("Peek cqe fatal error", "err", err)
				panic("Something wrong with your IO_URING!")
			}
			if cqe == nil {
				m.log.Warn("cqe == nil but we didnt get an err (eagain)?")
				break
			}

			inflight--
			tag := cqe.UserData
			res := cqe.Res
			m.ring.CQESeen(cqe)
			<- m.opSem

			op, ok := m.inflight[tag]
			assert.GreaterOrEqual(len(m.inflight), 1, "cqe without an inflight op")
			if !ok {
				m.log.Warn("cqe for unknown op", "tag", tag)
				continue
			}
			op.seen++
			if op.seen == 1 { op.first = res }
			if op.seen == op.count { delete(m.inflight, tag) }

			if op.done { continue }
			if res < 0 {
				m.finish(op, res)
			} else if op.seen == op.count {
				// a linked fsync reports 0, the caller wants the write's count
				m.finish(op, op.first)
			}
		}
	}
}
