package sentry

import (
	"sync"
)

// IDPool manages a pool of pre-generated identifiers to amortize
// crypto/rand overhead on hot transaction/span creation paths.
type IDPool[T any] struct {
	factory func() T
	ids     chan T
	stopCh  chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewIDPool creates a new ID pool with the specified capacity.
func NewIDPool[T any](capacity int, factory func() T) *IDPool[T] {
	pool := &IDPool[T]{
		ids:     make(chan T, capacity),
		factory: factory,
		stopCh:  make(chan struct{}),
	}
	// Start background refill goroutine.
	go pool.refill()
	return pool
}

// Get retrieves an ID from the pool or generates one if the pool is empty.
func (p *IDPool[T]) Get() T {
	select {
	case id := <-p.ids:
		return id
	default:
		// Pool empty, generate directly (fallback for burst load).
		return p.factory()
	}
}

// refill maintains the pool by generating IDs in the background.
func (p *IDPool[T]) refill() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
			// Only generate if pool has capacity.
			select {
			case p.ids <- p.factory():
				// Successfully added ID to pool.
			case <-p.stopCh:
				return
			}
		}
	}
}

// Close shuts down the ID pool gracefully.
func (p *IDPool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		close(p.stopCh)
		p.closed = true
	}
}
