package devio

import (
	"context"
	"sync/atomic"

	"devio/internal/status"
)

const (
	slotIdle	uint32 = iota
	slotArmed
	slotCompleting
	slotDone
)

// IoStatusBlock is the completion slot of one request. The device writes it
// exactly once through Complete, from whatever goroutine finishes the work. Readers
// either poll it (Peek) or wait for it (Done).
type IoStatusBlock struct {
	status	atomic.Uint32
	info	atomic.Uint32
	state	atomic.Uint32

	done	chan struct{}
	signal	*Event
	notify	func(st status.Status, n uint32)
}

// arm must be called by the owner before the request is dispatched. The pending
// status is stored last so a reader that sees it also sees the new done channel.
func (b *IoStatusBlock) arm(signal *Event, notify func(status.Status, uint32)) {
	b.done = make(chan struct{})
	b.signal = signal
	b.notify = notify
	b.info.Store(0)
	b.state.Store(slotArmed)
	b.status.Store(uint32(status.StatusPending))
}

// Complete publishes the terminal status and byte count, then wakes waiters.
// Only the first call on an armed slot has an effect.
func (b *IoStatusBlock) Complete(st status.Status, n uint32) {
	if !b.state.CompareAndSwap(slotArmed, slotCompleting) {
		return
	}
	b.info.Store(n)
	b.status.Store(uint32(st))
	b.state.Store(slotDone)
	close(b.done)
	if b.signal != nil {
		b.signal.Set()
	}
	if b.notify != nil {
		b.notify(st, n)
	}
}

func (b *IoStatusBlock) Status() status.Status 	{ return status.Status(b.status.Load()) }
func (b *IoStatusBlock) Information() uint32 	{ return b.info.Load() }
func (b *IoStatusBlock) Completed() bool 		{ return b.state.Load() == slotDone }

// Peek is the non-blocking read of the byte count. ok is false while the request
// is still in flight.
func (b *IoStatusBlock) Peek() (n uint32, ok bool) {
	if b.state.Load() != slotDone {
		return 0, false
	}
	return b.info.Load(), true
}

// Done is closed once the slot is terminal. nil if the slot was never armed.
func (b *IoStatusBlock) Done() <-chan struct{} {
	return b.done
}

func (b *IoStatusBlock) await(ctx context.Context) error {
	done := b.done
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
