package devio

import (
	"context"
	"fmt"

	"devio/internal/status"
)

func (h *Handle) awaitCompletion(ctx context.Context, ov *Overlapped, wait bool) Outcome {
	if ov.Status() == status.StatusPending {
		if !wait {
			return failure(status.ErrIoIncomplete)
		}

		signal := h.signal
		if ov.Event != nil {
			signal = ov.Event
		}
		if err := signal.waitOr(ctx, ov.iosb.Done()); err != nil {
			return failure(fmt.Errorf("devio: wait for completion: %w", err))
		}
		if err := ov.iosb.await(ctx); err != nil {
			return failure(fmt.Errorf("devio: wait for completion: %w", err))
		}
	}

	st := ov.Status()
	o := Translate(st)
	o.Bytes = ov.Information()
	return o
}
