package status

import "fmt"

// Errno is the caller-facing error code. A Status is turned into one through a
// fixed table.
type Errno uint32

const (
	ErrSuccess				Errno = 0
	ErrInvalidFunction		Errno = 1
	ErrAccessDenied			Errno = 5
	ErrInvalidHandle		Errno = 6
	ErrNotEnoughMemory		Errno = 8
	ErrCRC					Errno = 23
	ErrGenFailure			Errno = 31
	ErrHandleEOF			Errno = 38
	ErrNotSupported			Errno = 50
	ErrInvalidParameter		Errno = 87
	ErrDiskFull				Errno = 112
	ErrInsufficientBuffer	Errno = 122
	ErrBusy					Errno = 170
	ErrMoreData				Errno = 234
	ErrNoMoreItems			Errno = 259
	ErrMrMidNotFound		Errno = 317
	ErrOperationAborted		Errno = 995
	ErrIoIncomplete			Errno = 996
	ErrIoPending			Errno = 997
	ErrNotifyEnumDir		Errno = 1022
	ErrIoDevice				Errno = 1117
	ErrRevisionMismatch		Errno = 1306
	ErrNoSystemResources	Errno = 1450
)

var errnoText = map[Errno]string{
	ErrSuccess:				"the operation completed successfully",
	ErrInvalidFunction:		"incorrect function",
	ErrAccessDenied:		"access is denied",
	ErrInvalidHandle:		"the handle is invalid",
	ErrNotEnoughMemory:		"not enough memory",
	ErrCRC:					"data error (cyclic redundancy check)",
	ErrGenFailure:			"a device attached to the system is not functioning",
	ErrHandleEOF:			"reached the end of the file",
	ErrNotSupported:		"the request is not supported",
	ErrInvalidParameter:	"the parameter is incorrect",
	ErrDiskFull:			"there is not enough space on the disk",
	ErrInsufficientBuffer:	"the data area passed is too small",
	ErrBusy:				"the device is busy",
	ErrMoreData:			"more data is available",
	ErrNoMoreItems:			"no more data is available",
	ErrMrMidNotFound:		"no message text for status",
	ErrOperationAborted:	"the I/O operation has been aborted",
	ErrIoIncomplete:		"overlapped I/O event is not in a signaled state",
	ErrIoPending:			"overlapped I/O operation is in progress",
	ErrNotifyEnumDir:		"change notification buffer overflowed",
	ErrIoDevice:			"I/O device error",
	ErrRevisionMismatch:	"revision level mismatch",
	ErrNoSystemResources:	"insufficient system resources",
}

func (e Errno) Error() string {
	if t, ok := errnoText[e]; ok {
		return t
	}
	return fmt.Sprintf("errno %d", uint32(e))
}

// StatusToErrorMap links the two domains. Anything missing becomes ErrMrMidNotFound.
var StatusToErrorMap = map[Status]Errno{
	StatusSuccess:				ErrSuccess,
	StatusPending:				ErrIoPending,
	StatusNotifyEnumDir:		ErrNotifyEnumDir,
	StatusObjectNameExists:		ErrSuccess,
	StatusBufferOverflow:		ErrMoreData,
	StatusNoMoreEntries:		ErrNoMoreItems,
	StatusDeviceBusy:			ErrBusy,
	StatusUnsuccessful:			ErrGenFailure,
	StatusNotImplemented:		ErrInvalidFunction,
	StatusInvalidHandle:		ErrInvalidHandle,
	StatusInvalidParameter:		ErrInvalidParameter,
	StatusInvalidDeviceRequest:	ErrInvalidFunction,
	StatusEndOfFile:			ErrHandleEOF,
	StatusNoMemory:				ErrNotEnoughMemory,
	StatusAccessDenied:			ErrAccessDenied,
	StatusBufferTooSmall:		ErrInsufficientBuffer,
	StatusCrcError:				ErrCRC,
	StatusRevisionMismatch:		ErrRevisionMismatch,
	StatusDiskFull:				ErrDiskFull,
	StatusInsufficientResources:ErrNoSystemResources,
	StatusNotSupported:			ErrNotSupported,
	StatusCancelled:			ErrOperationAborted,
	StatusIoDeviceError:		ErrIoDevice,
}

func ToErrno(s Status) Errno {
	if e, ok := StatusToErrorMap[s]; ok {
		return e
	}
	return ErrMrMidNotFound
}
