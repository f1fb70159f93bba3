package devio

import (
	"context"
	"fmt"

	"devio/internal/status"
)

func (h *Handle) runSync(ctx context.Context, plane Plane, req *Request) Outcome {
	var iosb IoStatusBlock
	h.signal.Reset()
	iosb.arm(h.signal, nil)

	st := h.dispatch(plane, req, &iosb)

	if st == status.StatusPending {
		// the handle signal is shared: another request may reset it after this
		// slot completed, or set it before
		if err := h.signal.waitOr(ctx, iosb.Done()); err != nil {
			return failure(fmt.Errorf("devio: wait on handle: %w", err))
		}
		if err := iosb.await(ctx); err != nil {
			return failure(fmt.Errorf("devio: wait on handle: %w", err))
		}
		st = iosb.Status()
	}

	o := Translate(st)
	if o.Kind != OutcomeFailure {
		o.Bytes = iosb.Information()
	}
	return o
}
