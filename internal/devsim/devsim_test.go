package devsim

import (
	"testing"
	"time"

	"devio/internal/devio"
	"devio/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var code = devio.CtlCode(devio.FILE_DEVICE_UNKNOWN, 0x900, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)

func Test_Devsim_Unknown(t *testing.T) {
	d := New()
	var iosb devio.IoStatusBlock
	st := d.DeviceControl(&devio.Request{Code: code}, &iosb)
	assert.Equal(t, status.StatusInvalidDeviceRequest, st)
	require.Len(t, d.Calls(), 1)
	assert.Equal(t, devio.PlaneDevice, d.Calls()[0].Plane)
}

func Test_Devsim_Release(t *testing.T) {
	d := New()
	d.On(code, Behavior{Immediate: status.StatusPending, Final: status.StatusSuccess, Bytes: 4})

	h := devio.NewHandle(d)
	out := make([]byte, 8)
	ov := &devio.Overlapped{}
	_, err := h.Control(t.Context(), code, nil, out, ov)
	require.ErrorIs(t, err, status.ErrIoPending)
	assert.Equal(t, 1, d.Pending())

	assert.True(t, d.Release(code))
	assert.False(t, d.Release(code))
	assert.Equal(t, 0, d.Pending())
	assert.Equal(t, uint32(4), ov.Information())
	assert.NotEqual(t, make([]byte, 4), out[:4])
	assert.Equal(t, make([]byte, 4), out[4:])
}

func Test_Devsim_EchoDelayed(t *testing.T) {
	d := New()
	d.On(code, Behavior{Immediate: status.StatusPending, Final: status.StatusSuccess, Echo: true, Delay: time.Millisecond})

	h := devio.NewHandle(d)
	out := make([]byte, 5)
	n, err := h.Control(t.Context(), code, []byte("hello"), out, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)
	assert.Equal(t, "hello", string(out))
}
