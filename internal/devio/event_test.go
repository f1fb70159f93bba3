package devio

import (
	"context"
	"runtime"
	"testing"
	"time"

	"devio/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Event_ManualReset(t *testing.T) {
	ev := NewEvent(true, false)
	assert.False(t, ev.Signaled())

	ev.Set()
	require.NoError(t, ev.Wait(context.Background()))
	require.NoError(t, ev.Wait(context.Background()))
	assert.True(t, ev.Signaled())

	ev.Reset()
	assert.False(t, ev.Signaled())
}

func Test_Event_AutoReset(t *testing.T) {
	ev := NewEvent(false, true)
	require.NoError(t, ev.Wait(context.Background()))
	assert.False(t, ev.Signaled())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ev.Wait(ctx), context.DeadlineExceeded)
}

func Test_Event_WakesWaiter(t *testing.T) {
	ev := NewEvent(true, false)
	done := make(chan error, 1)
	go func() { done <- ev.Wait(context.Background()) }()

	time.Sleep(5 * time.Millisecond)
	ev.Set()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func Test_IoStatusBlock_WriteOnce(t *testing.T) {
	var b IoStatusBlock
	assert.Equal(t, status.StatusSuccess, b.Status())
	_, ok := b.Peek()
	assert.False(t, ok)

	sig := NewEvent(true, false)
	var posted []uint32
	b.arm(sig, func(st status.Status, n uint32) { posted = append(posted, n) })
	assert.Equal(t, status.StatusPending, b.Status())

	_, ok = b.Peek()
	assert.False(t, ok)

	b.Complete(status.StatusSuccess, 12)
	b.Complete(status.StatusUnsuccessful, 99)

	n, ok := b.Peek()
	assert.True(t, ok)
	assert.Equal(t, uint32(12), n)
	assert.Equal(t, status.StatusSuccess, b.Status())
	assert.True(t, sig.Signaled())
	assert.Equal(t, []uint32{12}, posted)

	// reuse after terminal
	b.arm(nil, nil)
	assert.Equal(t, status.StatusPending, b.Status())
	assert.False(t, b.Completed())
}

func Test_IoStatusBlock_CompleteBeforeArm(t *testing.T) {
	var b IoStatusBlock
	b.Complete(status.StatusSuccess, 5)
	assert.False(t, b.Completed())
	assert.Equal(t, uint32(0), b.Information())
}

type stallDevice struct{}

func (stallDevice) FsControl(*Request, *IoStatusBlock) status.Status		{ return status.StatusPending }
func (stallDevice) DeviceControl(*Request, *IoStatusBlock) status.Status	{ return status.StatusPending }

func Test_IoStatusBlock_CompletingIsNotDone(t *testing.T) {
	h := NewHandle(stallDevice{})
	ov := &Overlapped{}
	ov.iosb.arm(h.signal, nil)

	// Complete has won the slot but not stored the result yet, and another
	// request on the handle has set the shared signal
	ov.iosb.state.Store(slotCompleting)
	h.signal.Set()

	_, ok := ov.iosb.Peek()
	assert.False(t, ok)
	assert.False(t, ov.Completed())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	o := h.awaitCompletion(ctx, ov, true)
	assert.Equal(t, OutcomeFailure, o.Kind)
	assert.ErrorIs(t, o.Err, context.DeadlineExceeded)

	ov.iosb.state.Store(slotArmed)
	ov.iosb.Complete(status.StatusSuccess, 7)
	o = h.awaitCompletion(context.Background(), ov, true)
	assert.Equal(t, OutcomeSuccess, o.Kind)
	assert.Equal(t, uint32(7), o.Bytes)
}

func Test_IoStatusBlock_WaiterRacesCompleter(t *testing.T) {
	h := NewHandle(stallDevice{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := range 200 {
		ov := &Overlapped{}
		res := make(chan Outcome, 1)
		go func() {
			// picks the descriptor up as soon as it reads pending
			for ov.Status() != status.StatusPending && !ov.Completed() {
				runtime.Gosched()
			}
			res <- h.awaitCompletion(ctx, ov, true)
		}()

		ov.iosb.arm(h.signal, nil)
		h.signal.Set()
		go ov.iosb.Complete(status.StatusSuccess, uint32(i+1))

		o := <-res
		require.Equal(t, OutcomeSuccess, o.Kind, "round %d", i)
		require.Equal(t, uint32(i+1), o.Bytes, "round %d", i)
		h.signal.Reset()
	}
}

func Test_Event_WaitOrSlotDone(t *testing.T) {
	ev := NewEvent(false, false)
	done := make(chan struct{})
	close(done)

	require.NoError(t, ev.waitOr(context.Background(), done))

	ev.Set()
	require.NoError(t, ev.waitOr(context.Background(), done))
	assert.False(t, ev.Signaled(), "a set auto-reset event is still consumed")
}
