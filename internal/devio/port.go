package devio

import (
	"context"
	"sync"

	"devio/internal/status"

	"github.com/gammazero/deque"
)

// Packet is one completion notification.
type Packet struct {
	Key			uint64
	Overlapped	*Overlapped
	Status		status.Status
	Bytes		uint32
}

// CompletionPort collects completion packets from every handle associated with it.
// Packets come out in the order the requests finished.
type CompletionPort struct {
	mu		sync.Mutex
	q		deque.Deque[Packet]
	avail	chan struct{}
}

func NewCompletionPort() *CompletionPort {
	return &CompletionPort{avail: make(chan struct{}, 1)}
}

func (p *CompletionPort) Post(pkt Packet) {
	p.mu.Lock()
	p.q.PushBack(pkt)
	p.mu.Unlock()
	p.wake()
}

func (p *CompletionPort) wake() {
	select {
	case p.avail <- struct{}{}:
	default:
	}
}

func (p *CompletionPort) TryGet() (Packet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.q.Len() == 0 {
		return Packet{}, false
	}
	pkt := p.q.PopFront()
	if p.q.Len() > 0 {
		p.wake()
	}
	return pkt, true
}

// Get blocks until a packet is available or ctx is done.
func (p *CompletionPort) Get(ctx context.Context) (Packet, error) {
	for {
		if pkt, ok := p.TryGet(); ok {
			return pkt, nil
		}
		select {
		case <-p.avail:
		case <-ctx.Done():
			return Packet{}, ctx.Err()
		}
	}
}

func (p *CompletionPort) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.q.Len()
}
