package devio

import "devio/internal/status"

// NotifyMode says whether a finished request is reported on the handle's
// completion port.
type NotifyMode uint8
const (
	NotifyPort NotifyMode = iota // post to the associated port, if any
	NotifySuppress // caller polls or waits explicitly
)

// Overlapped tracks one asynchronous request. The caller allocates it and must
// keep it alive until the request is terminal. It may be reused after that.
type Overlapped struct {
	iosb	IoStatusBlock

	// Signaled on completion. When nil the handle itself is signaled.
	Event	*Event
	Notify	NotifyMode
}

// Status is StatusPending while in flight. A descriptor that was never started
// reads as StatusSuccess.
func (ov *Overlapped) Status() status.Status 	{ return ov.iosb.Status() }
func (ov *Overlapped) Information() uint32 		{ return ov.iosb.Information() }
func (ov *Overlapped) Completed() bool 			{ return ov.iosb.Completed() }
