// Control requests against open device handles.
//
// A request either runs synchronously (Control with a nil *Overlapped blocks until
// the device finishes) or is started asynchronously (Control with a descriptor
// returns at once, usually with ErrIoPending) and collected later through
// OverlappedResult or a CompletionPort.
package devio

import (
	"context"
	"log/slog"
	"sync"

	"devio/internal/status"
)

// Request is what a Device receives. Event and Context are nil on the
// synchronous path.
type Request struct {
	Code	ControlCode
	In		[]byte
	Out		[]byte

	Event	*Event
	Context	*Overlapped // notification context, nil when suppressed
}

// Device is the dispatch primitive behind a handle. A device finishes a request by
// calling iosb.Complete exactly once. It may do that before returning a terminal
// status, or later from any goroutine after returning StatusPending. Buffers in
// req belong to the caller and stay valid until completion.
type Device interface {
	FsControl(req *Request, iosb *IoStatusBlock) status.Status
	DeviceControl(req *Request, iosb *IoStatusBlock) status.Status
}

// Handle is an open reference to a Device. It is signaled whenever a request that
// carried no event of its own finishes.
type Handle struct {
	log		*slog.Logger
	dev		Device
	signal	*Event

	mu		sync.Mutex
	port	*CompletionPort
	key		uint64
}

func NewHandle(dev Device) *Handle {
	return &Handle{
		log:	slog.With("src", "Handle"),
		dev:	dev,
		signal:	NewEvent(true, false),
	}
}

func (h *Handle) Device() Device { return h.dev }

// Associate routes completions of requests started with NotifyPort to port,
// tagged with key.
func (h *Handle) Associate(port *CompletionPort, key uint64) {
	h.mu.Lock()
	h.port = port
	h.key = key
	h.mu.Unlock()
}

// Wait blocks until the handle is signaled.
func (h *Handle) Wait(ctx context.Context) error {
	return h.signal.Wait(ctx)
}

// Control issues code against the handle. With ov == nil it blocks until the
// device is done. With a descriptor it never blocks: ErrIoPending means the
// request is still running and its result comes from OverlappedResult.
//
// The byte count is meaningful for full successes and warning statuses (which
// come back with a non-nil error, such as status.ErrMoreData).
func (h *Handle) Control(ctx context.Context, code ControlCode, in, out []byte, ov *Overlapped) (uint32, error) {
	plane := Classify(code)
	req := &Request{Code: code, In: in, Out: out}

	var o Outcome
	if ov == nil {
		o = h.runSync(ctx, plane, req)
	} else {
		o = h.startAsync(plane, req, ov)
	}

	h.log.Debug("Control", "code", code, "plane", plane, "async", ov != nil,
		"outcome", o.Kind, "bytes", o.Bytes, "err", o.Err)
	return o.Result()
}

// OverlappedResult reports the outcome of a request started with ov. When the
// request is still running and wait is false it returns ErrIoIncomplete.
func (h *Handle) OverlappedResult(ctx context.Context, ov *Overlapped, wait bool) (uint32, error) {
	return h.awaitCompletion(ctx, ov, wait).Result()
}

func (h *Handle) dispatch(plane Plane, req *Request, iosb *IoStatusBlock) status.Status {
	if plane == PlaneFilesystem {
		return h.dev.FsControl(req, iosb)
	}
	return h.dev.DeviceControl(req, iosb)
}
