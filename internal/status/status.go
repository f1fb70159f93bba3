// Native completion status codes.
//
// A Status carries its severity in the top two bits. Severity 0 and 1 are
// success (a request that completed), 2 is a warning (completed, usually with
// partial output), 3 is an error. StatusPending lives in the success severity but
// is not terminal.
package status

import "fmt"

type Status uint32

type Severity uint8
const (
	SeveritySuccess Severity = iota
	SeverityInformational
	SeverityWarning
	SeverityError
)

const (
	StatusSuccess				Status = 0x00000000
	StatusPending				Status = 0x00000103
	StatusNotifyEnumDir			Status = 0x0000010C

	StatusObjectNameExists		Status = 0x40000000

	StatusBufferOverflow		Status = 0x80000005
	StatusNoMoreEntries			Status = 0x8000001A
	StatusDeviceBusy			Status = 0x80000011

	StatusUnsuccessful			Status = 0xC0000001
	StatusNotImplemented		Status = 0xC0000002
	StatusInvalidHandle			Status = 0xC0000008
	StatusInvalidParameter		Status = 0xC000000D
	StatusInvalidDeviceRequest	Status = 0xC0000010
	StatusEndOfFile				Status = 0xC0000011
	StatusNoMemory				Status = 0xC0000017
	StatusAccessDenied			Status = 0xC0000022
	StatusBufferTooSmall		Status = 0xC0000023
	StatusCrcError				Status = 0xC000003F
	StatusRevisionMismatch		Status = 0xC0000059
	StatusDiskFull				Status = 0xC000007F
	StatusInsufficientResources	Status = 0xC000009A
	StatusNotSupported			Status = 0xC00000BB
	StatusCancelled				Status = 0xC0000120
	StatusIoDeviceError			Status = 0xC0000185
)

func (s Status) Severity() Severity { return Severity(s >> 30) }

// Completed without error. Includes informational codes and StatusPending.
func (s Status) IsSuccess() bool 		{ return int32(s) >= 0 }
func (s Status) IsError() bool 			{ return s.Severity() == SeverityError }
// Not an error but not a success either. Output buffers are still valid.
func (s Status) IsWarning() bool 		{ return s.Severity() == SeverityWarning }
func (s Status) IsInformational() bool 	{ return s.Severity() == SeverityInformational }

var names = map[Status]string{
	StatusSuccess:				"STATUS_SUCCESS",
	StatusPending:				"STATUS_PENDING",
	StatusNotifyEnumDir:		"STATUS_NOTIFY_ENUM_DIR",
	StatusObjectNameExists:		"STATUS_OBJECT_NAME_EXISTS",
	StatusBufferOverflow:		"STATUS_BUFFER_OVERFLOW",
	StatusNoMoreEntries:		"STATUS_NO_MORE_ENTRIES",
	StatusDeviceBusy:			"STATUS_DEVICE_BUSY",
	StatusUnsuccessful:			"STATUS_UNSUCCESSFUL",
	StatusNotImplemented:		"STATUS_NOT_IMPLEMENTED",
	StatusInvalidHandle:		"STATUS_INVALID_HANDLE",
	StatusInvalidParameter:		"STATUS_INVALID_PARAMETER",
	StatusInvalidDeviceRequest:	"STATUS_INVALID_DEVICE_REQUEST",
	StatusEndOfFile:			"STATUS_END_OF_FILE",
	StatusNoMemory:				"STATUS_NO_MEMORY",
	StatusAccessDenied:			"STATUS_ACCESS_DENIED",
	StatusBufferTooSmall:		"STATUS_BUFFER_TOO_SMALL",
	StatusCrcError:				"STATUS_CRC_ERROR",
	StatusRevisionMismatch:		"STATUS_REVISION_MISMATCH",
	StatusDiskFull:				"STATUS_DISK_FULL",
	StatusInsufficientResources:"STATUS_INSUFFICIENT_RESOURCES",
	StatusNotSupported:			"STATUS_NOT_SUPPORTED",
	StatusCancelled:			"STATUS_CANCELLED",
	StatusIoDeviceError:		"STATUS_IO_DEVICE_ERROR",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("STATUS_0x%08X", uint32(s))
}

// Err returns nil for success statuses (other than pending) and a *StatusError otherwise.
func (s Status) Err() error {
	if s.IsSuccess() && s != StatusPending {
		return nil
	}
	return &StatusError{Status: s, Errno: ToErrno(s)}
}

// StatusError is what the core hands back to callers. It unwraps to its Errno so
// callers can match with errors.Is(err, status.ErrMoreData).
type StatusError struct {
	Status	Status
	Errno	Errno
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Errno.Error(), e.Status)
}

func (e *StatusError) Unwrap() error { return e.Errno }
