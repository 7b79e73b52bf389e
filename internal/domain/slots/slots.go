// Package slots hands out small-integer device identities from a bounded,
// process-wide pool shared by every session.
package slots

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pool issues device slots. Acquire and Release are safe for concurrent use.
type Pool interface {
	// Acquire returns the lowest free slot or ErrExhausted.
	Acquire(ctx context.Context) (int, error)

	// Release returns slot to the pool. Releasing a slot that is not
	// currently issued is an error.
	Release(slot int) error

	InUse() int64
	Capacity() int
}

type inMemoryPool struct {
	mu       sync.Mutex
	taken    []bool
	first    int
	capacity int
	inUse    atomic.Int64
}

// NewInMemoryPool creates a pool with configuration options.
func NewInMemoryPool(opts ...Option) Pool {
	p := &inMemoryPool{
		capacity: 16,
		first:    1,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.taken = make([]bool, p.capacity)
	return p
}

func (p *inMemoryPool) Acquire(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, taken := range p.taken {
		if !taken {
			p.taken[i] = true
			p.inUse.Add(1)
			return p.first + i, nil
		}
	}
	return 0, ErrExhausted
}

func (p *inMemoryPool) Release(slot int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slot - p.first
	if i < 0 || i >= len(p.taken) {
		return ErrOutOfRange
	}
	if !p.taken[i] {
		return ErrNotAcquired
	}
	p.taken[i] = false
	p.inUse.Add(-1)
	return nil
}

func (p *inMemoryPool) InUse() int64 { return p.inUse.Load() }

func (p *inMemoryPool) Capacity() int { return p.capacity }
