package devio

import "devio/internal/status"

func (h *Handle) startAsync(plane Plane, req *Request, ov *Overlapped) Outcome {
	signal := ov.Event
	if signal == nil {
		h.signal.Reset()
		signal = h.signal
	}

	var notify func(status.Status, uint32)
	if ov.Notify == NotifyPort {
		req.Context = ov
		h.mu.Lock()
		port, key := h.port, h.key
		h.mu.Unlock()
		if port != nil {
			notify = func(st status.Status, n uint32) {
				port.Post(Packet{Key: key, Overlapped: ov, Status: st, Bytes: n})
			}
		}
	}
	req.Event = ov.Event

	// from here on readers see StatusPending, never a stale previous result
	ov.iosb.arm(signal, notify)

	st := h.dispatch(plane, req, &ov.iosb)
	if st != status.StatusPending && !ov.iosb.Completed() {
		// rejected without touching the slot; finish it so waiters do not hang
		ov.iosb.Complete(st, 0)
	}

	var n uint32
	if !st.IsError() {
		// best effort, the request may still be running
		n, _ = ov.iosb.Peek()
	}

	if st == status.StatusPending || st.IsError() {
		return Outcome{Kind: OutcomeFailure, Bytes: n, Err: st.Err()}
	}

	o := Translate(st)
	o.Bytes = n
	return o
}
