package devio

import (
	"context"
	"sync"
)

// Waitable is anything a caller can block on until it is signaled.
type Waitable interface {
	Wait(ctx context.Context) error
}

// Event is a signalable object. A manual-reset event stays signaled until Reset,
// an auto-reset event is cleared by the waiter it releases. The zero value is an
// unsignaled auto-reset event.
type Event struct {
	mu		sync.Mutex
	ch		chan struct{} // closed while set
	set		bool
	manual	bool
}

func NewEvent(manualReset bool, initial bool) *Event {
	ev := &Event{
		ch:		make(chan struct{}),
		manual:	manualReset,
	}
	if initial {
		ev.Set()
	}
	return ev
}

func (ev *Event) Set() {
	ev.mu.Lock()
	if !ev.set {
		ev.set = true
		close(ev.chanLocked())
	}
	ev.mu.Unlock()
}

func (ev *Event) Reset() {
	ev.mu.Lock()
	ev.resetLocked()
	ev.mu.Unlock()
}

func (ev *Event) resetLocked() {
	if ev.set {
		ev.set = false
		ev.ch = make(chan struct{})
	}
}

func (ev *Event) chanLocked() chan struct{} {
	if ev.ch == nil {
		ev.ch = make(chan struct{})
	}
	return ev.ch
}

func (ev *Event) Signaled() bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.set
}

func (ev *Event) Wait(ctx context.Context) error {
	return ev.waitOr(ctx, nil)
}

// waitOr is Wait that also returns once done is closed. The event is not consumed
// in that case.
func (ev *Event) waitOr(ctx context.Context, done <-chan struct{}) error {
	for {
		ev.mu.Lock()
		if ev.set {
			if !ev.manual {
				ev.resetLocked()
			}
			ev.mu.Unlock()
			return nil
		}
		ch := ev.chanLocked()
		ev.mu.Unlock()

		select {
		case <-ch:
			// re-check under the lock, an auto-reset event may have been taken
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
