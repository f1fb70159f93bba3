package util

import (
	"sync"

	"github.com/negrel/assert"
)

func mod(a int, b int) int {
	return ((a % b) + b) % b
}

// fixed-size ring-buffer queue
type Queue[T any] struct {
	data	[]T
	head	int // next slot to write to
	cnt 	int
}

func CreateQueue[T any](size int) Queue[T] {
	return Queue[T] {
		head: 	0,
		cnt: 	0,
		data: 	make([]T, size),
	}
}

func (q *Queue[T]) Cnt() int {
	return q.cnt
}

func (q *Queue[T]) Cap() int {
	return len(q.data)
}

// will panic if out of space.
func (q *Queue[T]) Push(val T) {
	if q.cnt == len(q.data) { panic("queue overflow") }
	q.data[q.head] = val
	q.head = mod((q.head + 1), len(q.data))
	q.cnt++
}

func (q *Queue[T]) Pop() T {
	if q.cnt == 0 { panic("queue underflow") }
	i := mod((q.head - q.cnt), len(q.data))
	q.cnt--
	return q.data[i]
}


// TicketQueue combines a fixed contiguous array and a queue of numbered "tickets" which
// correspond to slots in the contiguous array. In other words, a shared pool of items
// guarded by a semaphore. Safe for concurrent use.
type TicketQueue[T any] struct {
	mu			sync.Mutex
	free		*sync.Cond
	queue		Queue[int]
	data		[]T
}

func CreateTicketQueue[T any](size int) *TicketQueue[T] {
	queue := CreateQueue[int](size)
	for i := range size {
		queue.Push(i)
	}
	data := make([]T, size)

	tq := &TicketQueue[T]{
		queue: queue,
		data: data,
	}
	tq.free = sync.NewCond(&tq.mu)
	return tq
}

// This acquires a ticket and sets the slot to the passed value. Blocks until a ticket
// is free.
func (tq *TicketQueue[T]) Acq(val T) int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	for tq.queue.Cnt() == 0 {
		tq.free.Wait()
	}
	return tq.acqLocked(val)
}

// Like Acq but gives up instead of waiting.
func (tq *TicketQueue[T]) TryAcq(val T) (int, bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	if tq.queue.Cnt() == 0 {
		return -1, false
	}
	return tq.acqLocked(val), true
}

func (tq *TicketQueue[T]) acqLocked(val T) int {
	ticket := tq.queue.Pop()
	tq.data[ticket] = val
	return ticket
}

func (tq *TicketQueue[T]) Rel(ticket int) {
	tq.mu.Lock()
	assert.Less(tq.queue.Cnt(), tq.queue.Cap(), "ticket released twice")
	tq.queue.Push(ticket)
	tq.mu.Unlock()
	tq.free.Signal()
}

func (tq *TicketQueue[T]) Get(ticket int) T {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.data[ticket]
}

func (tq *TicketQueue[T]) Free() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.queue.Cnt()
}
