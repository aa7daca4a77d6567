package source

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/bft-labs/logship/internal/domain"
)

// Buffer is a FIFO of pending records shared by the reader and the flush
// workers. Ready fires once at least threshold records are pending.
type Buffer struct {
	mu        sync.Mutex
	q         *queue.Queue
	threshold int
	ready     chan struct{}
}

// NewBuffer creates a buffer that signals Ready at threshold pending records.
func NewBuffer(threshold int) *Buffer {
	if threshold < 1 {
		threshold = 1
	}
	return &Buffer{
		q:         queue.New(),
		threshold: threshold,
		ready:     make(chan struct{}, 1),
	}
}

// Push appends a record.
func (b *Buffer) Push(r domain.Record) {
	b.mu.Lock()
	b.q.Add(r)
	full := b.q.Length() >= b.threshold
	b.mu.Unlock()

	if full {
		b.signal()
	}
}

// Drain removes and returns up to limit records in arrival order.
func (b *Buffer) Drain(limit int) []domain.Record {
	b.mu.Lock()
	n := min(limit, b.q.Length())
	out := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.q.Remove().(domain.Record))
	}
	full := b.q.Length() >= b.threshold
	b.mu.Unlock()

	if full {
		b.signal()
	}
	return out
}

// Len returns the number of pending records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q.Length()
}

// Ready is signalled when the pending count reaches the threshold.
func (b *Buffer) Ready() <-chan struct{} { return b.ready }

func (b *Buffer) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
