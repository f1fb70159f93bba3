package devio

import "fmt"

// ControlCode selects the operation a device performs. The top 16 bits are the
// device class, followed by 2 access bits, 12 function bits and 2 method bits.
type ControlCode uint32

type DeviceType uint16
const (
	FILE_DEVICE_BEEP		DeviceType = 0x01
	FILE_DEVICE_DISK		DeviceType = 0x07
	FILE_DEVICE_FILE_SYSTEM	DeviceType = 0x09
	FILE_DEVICE_NULL		DeviceType = 0x15
	FILE_DEVICE_UNKNOWN		DeviceType = 0x22
	FILE_DEVICE_MASS_STORAGE DeviceType = 0x2d
)

const (
	METHOD_BUFFERED		= 0
	METHOD_IN_DIRECT	= 1
	METHOD_OUT_DIRECT	= 2
	METHOD_NEITHER		= 3
)

const (
	FILE_ANY_ACCESS		= 0
	FILE_READ_ACCESS	= 1
	FILE_WRITE_ACCESS	= 2
)

func CtlCode(devType DeviceType, function uint16, method uint8, access uint8) ControlCode {
	return ControlCode(uint32(devType)<<16 | uint32(access&0x3)<<14 |
		uint32(function&0xfff)<<2 | uint32(method&0x3))
}

func (c ControlCode) DeviceType() DeviceType 	{ return DeviceType(c >> 16) }
func (c ControlCode) Function() uint16 			{ return uint16(c>>2) & 0xfff }
func (c ControlCode) Method() uint8 			{ return uint8(c & 0x3) }
func (c ControlCode) Access() uint8 			{ return uint8(c>>14) & 0x3 }

func (c ControlCode) String() string {
	return fmt.Sprintf("ctl(0x%04x:%03x:%d:%d)", uint16(c.DeviceType()), c.Function(), c.Access(), c.Method())
}

// Plane is the dispatch path a request takes. Both have the same shape, they only
// differ in which kind of target receives the request.
type Plane uint8
const (
	PlaneDevice Plane = iota
	PlaneFilesystem
)

func (p Plane) String() string {
	if p == PlaneFilesystem {
		return "fsctl"
	}
	return "ioctl"
}

// Classify picks the plane from the device class bits alone. It never fails.
func Classify(code ControlCode) Plane {
	if code.DeviceType() == FILE_DEVICE_FILE_SYSTEM {
		return PlaneFilesystem
	}
	return PlaneDevice
}
