//go:build !linux

package ringdev

import (
	"devio/internal/devio"
	"devio/internal/status"
)

type Device struct{}

func Open(path string, cfg Config) (*Device, error) {
	return nil, ErrUnsupported
}

func (d *Device) Close() error { return nil }
func (d *Device) Path() string { return "" }

func (d *Device) DeviceControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	iosb.Complete(status.StatusNotSupported, 0)
	return status.StatusNotSupported
}

func (d *Device) FsControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	iosb.Complete(status.StatusNotSupported, 0)
	return status.StatusNotSupported
}
