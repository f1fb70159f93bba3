// A file-backed device whose requests run on an io_uring (see internal/iomgr).
//
// Device-plane codes move data, filesystem-plane codes act on the backing file.
// Inputs are little-endian fixed layouts:
//
//	IOCTL_RINGDEV_READ       in: u64 offset                out: data
//	IOCTL_RINGDEV_WRITE      in: u64 offset, payload       out: -
//	IOCTL_RINGDEV_CHECKSUM   in: u64 offset, u32 length    out: u64 xxhash64
//	IOCTL_RINGDEV_NOP        in: -                         out: -
//	FSCTL_RINGDEV_FLUSH      in: -                         out: -
//	FSCTL_RINGDEV_ALLOCATE   in: u64 offset, u64 length    out: -
//	FSCTL_RINGDEV_QUERY_VERSION  in: semver constraint     out: version string
//	FSCTL_RINGDEV_NOTIFY_CHANGE  in: -                     out: u32 change mask
package ringdev

import (
	"errors"

	c "devio/internal"
	"devio/internal/devio"
)

const VERSION = "1.4.0"

var ErrUnsupported = errors.New("ringdev: io_uring devices need linux")

var (
	IOCTL_RINGDEV_NOP		= devio.CtlCode(devio.FILE_DEVICE_DISK, 0x800, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)
	IOCTL_RINGDEV_READ		= devio.CtlCode(devio.FILE_DEVICE_DISK, 0x801, devio.METHOD_OUT_DIRECT, devio.FILE_READ_ACCESS)
	IOCTL_RINGDEV_WRITE		= devio.CtlCode(devio.FILE_DEVICE_DISK, 0x802, devio.METHOD_IN_DIRECT, devio.FILE_WRITE_ACCESS)
	IOCTL_RINGDEV_CHECKSUM	= devio.CtlCode(devio.FILE_DEVICE_DISK, 0x803, devio.METHOD_BUFFERED, devio.FILE_READ_ACCESS)

	FSCTL_RINGDEV_FLUSH			= devio.CtlCode(devio.FILE_DEVICE_FILE_SYSTEM, 0x800, devio.METHOD_BUFFERED, devio.FILE_WRITE_ACCESS)
	FSCTL_RINGDEV_ALLOCATE		= devio.CtlCode(devio.FILE_DEVICE_FILE_SYSTEM, 0x801, devio.METHOD_BUFFERED, devio.FILE_WRITE_ACCESS)
	FSCTL_RINGDEV_QUERY_VERSION	= devio.CtlCode(devio.FILE_DEVICE_FILE_SYSTEM, 0x802, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)
	FSCTL_RINGDEV_NOTIFY_CHANGE	= devio.CtlCode(devio.FILE_DEVICE_FILE_SYSTEM, 0x803, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)
)

// Change mask bits reported by FSCTL_RINGDEV_NOTIFY_CHANGE.
const (
	CHANGE_WRITE	= 1 << 0
	CHANGE_ATTRIB	= 1 << 1
	CHANGE_REMOVE	= 1 << 2
	CHANGE_RENAME	= 1 << 3
)

type Config struct {
	RingEntries		uint32
	QueueSize		int
	RingCPU			int
	// Stage reads and writes through aligned slots and open with O_DIRECT
	Direct			bool
	StagingSlots	int
	// Reported by FSCTL_RINGDEV_QUERY_VERSION
	Version			string
}

func DefaultConfig() Config {
	return Config{
		RingEntries:	0x80,
		QueueSize:		0x100,
		RingCPU:		-1,
		StagingSlots:	0x10,
		Version:		VERSION,
	}
}

// Input encoders, for callers.

func ReadInput(off uint64) []byte {
	in := make([]byte, c.LEN_U64)
	c.Bin.PutUint64(in, off)
	return in
}

func WriteInput(off uint64, payload []byte) []byte {
	in := make([]byte, c.LEN_U64+len(payload))
	c.Bin.PutUint64(in, off)
	copy(in[c.LEN_U64:], payload)
	return in
}

func ChecksumInput(off uint64, length uint32) []byte {
	in := make([]byte, c.LEN_U64+c.LEN_U32)
	c.Bin.PutUint64(in, off)
	c.Bin.PutUint32(in[c.LEN_U64:], length)
	return in
}

func AllocateInput(off uint64, length uint64) []byte {
	in := make([]byte, 2*c.LEN_U64)
	c.Bin.PutUint64(in, off)
	c.Bin.PutUint64(in[c.LEN_U64:], length)
	return in
}
