package devio_test

import (
	"math/rand/v2"
	"testing"

	"devio/internal/devio"

	"github.com/stretchr/testify/assert"
)

func Test_Classify_AllDeviceTypes(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for dt := range 0x10000 {
		low := uint32(r.Uint32() & 0xffff)
		for _, lowBits := range []uint32{0, 0xffff, low} {
			code := devio.ControlCode(uint32(dt)<<16 | lowBits)
			want := devio.PlaneDevice
			if dt == int(devio.FILE_DEVICE_FILE_SYSTEM) {
				want = devio.PlaneFilesystem
			}
			if got := devio.Classify(code); got != want {
				t.Fatalf("Classify(0x%08x) = %v, want %v", uint32(code), got, want)
			}
		}
	}
}

func Test_CtlCode_Layout(t *testing.T) {
	// FSCTL_GET_RETRIEVAL_POINTERS
	code := devio.CtlCode(devio.FILE_DEVICE_FILE_SYSTEM, 28, devio.METHOD_NEITHER, devio.FILE_ANY_ACCESS)
	assert.Equal(t, devio.ControlCode(0x00090073), code)
	assert.Equal(t, devio.FILE_DEVICE_FILE_SYSTEM, code.DeviceType())
	assert.Equal(t, uint16(28), code.Function())
	assert.Equal(t, uint8(devio.METHOD_NEITHER), code.Method())

	// IOCTL_DISK_GET_DRIVE_GEOMETRY
	code = devio.CtlCode(devio.FILE_DEVICE_DISK, 0, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)
	assert.Equal(t, devio.ControlCode(0x00070000), code)
	assert.Equal(t, devio.PlaneDevice, devio.Classify(code))

	code = devio.CtlCode(devio.FILE_DEVICE_MASS_STORAGE, 0x200, devio.METHOD_BUFFERED, devio.FILE_READ_ACCESS)
	assert.Equal(t, uint8(devio.FILE_READ_ACCESS), code.Access())
}
