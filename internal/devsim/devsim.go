// Scripted in-memory device. Each control code gets a Behavior describing what the
// dispatch returns and how (and when) the request finishes.
package devsim

import (
	"log/slog"
	"sync"
	"time"

	"devio/internal/devio"
	"devio/internal/status"
	"devio/internal/util"
)

type Behavior struct {
	// Returned from the dispatch call. StatusPending defers completion.
	Immediate	status.Status
	// Terminal status of a pending request. Ignored otherwise.
	Final		status.Status
	// Bytes reported (capped at len(Out)). The output is filled with a pattern.
	Bytes		uint32
	// Copy In to Out instead of the pattern, Bytes becomes the copied length.
	Echo		bool
	// A pending request completes by itself after Delay. Zero waits for Release.
	Delay		time.Duration
	// Return Immediate without completing the slot.
	NoComplete	bool
}

type Call struct {
	Plane		devio.Plane
	Code		devio.ControlCode
	HasEvent	bool
	HasContext	bool
}

type pendingReq struct {
	code	devio.ControlCode
	req		*devio.Request
	iosb	*devio.IoStatusBlock
	b		Behavior
}

type Device struct {
	log		*slog.Logger
	mu		sync.Mutex
	script	map[devio.ControlCode]Behavior
	calls	[]Call
	pending	[]*pendingReq
	seq		uint64
}

func New() *Device {
	return &Device{
		log:	slog.With("src", "devsim"),
		script:	make(map[devio.ControlCode]Behavior),
	}
}

func (d *Device) On(code devio.ControlCode, b Behavior) {
	d.mu.Lock()
	d.script[code] = b
	d.mu.Unlock()
}

func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Release completes the oldest pending request for code. Returns false if there
// is none.
func (d *Device) Release(code devio.ControlCode) bool {
	d.mu.Lock()
	var p *pendingReq
	for i, cand := range d.pending {
		if cand.code == code {
			p = cand
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	if p == nil { return false }
	d.finish(p.req, p.iosb, p.b, p.b.Final)
	return true
}

func (d *Device) FsControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	return d.handle(devio.PlaneFilesystem, req, iosb)
}

func (d *Device) DeviceControl(req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	return d.handle(devio.PlaneDevice, req, iosb)
}

func (d *Device) handle(plane devio.Plane, req *devio.Request, iosb *devio.IoStatusBlock) status.Status {
	d.mu.Lock()
	d.calls = append(d.calls, Call{
		Plane:		plane,
		Code:		req.Code,
		HasEvent:	req.Event != nil,
		HasContext:	req.Context != nil,
	})
	b, ok := d.script[req.Code]
	if !ok {
		d.mu.Unlock()
		iosb.Complete(status.StatusInvalidDeviceRequest, 0)
		return status.StatusInvalidDeviceRequest
	}
	if b.Immediate == status.StatusPending && b.Delay == 0 {
		d.pending = append(d.pending, &pendingReq{code: req.Code, req: req, iosb: iosb, b: b})
	}
	d.mu.Unlock()

	switch {
	case b.Immediate != status.StatusPending:
		if !b.NoComplete {
			d.finish(req, iosb, b, b.Immediate)
		}
	case b.Delay > 0:
		time.AfterFunc(b.Delay, func() { d.finish(req, iosb, b, b.Final) })
	}
	return b.Immediate
}

func (d *Device) finish(req *devio.Request, iosb *devio.IoStatusBlock, b Behavior, st status.Status) {
	var n uint32
	if !st.IsError() {
		n = d.produce(req, b)
	}
	d.log.Debug("complete", "code", req.Code, "status", st, "bytes", n)
	iosb.Complete(st, n)
}

func (d *Device) produce(req *devio.Request, b Behavior) uint32 {
	if b.Echo {
		return uint32(copy(req.Out, req.In))
	}
	n := min(b.Bytes, uint32(len(req.Out)))
	d.mu.Lock()
	d.seq++
	seed := d.seq
	d.mu.Unlock()
	util.Fill(req.Out[:n], seed)
	return n
}
