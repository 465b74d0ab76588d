package sentry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector is a buffering Transport: it accepts finished payloads on a
// bounded channel and batches them for export by the host. Safe for
// concurrent use by multiple goroutines.
//
// When the channel is full, payloads are dropped and counted rather than
// blocking the instrumented application.
type Collector struct {
	events       []*Event
	eventsCh     chan *Event
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	// pending counts payloads accepted for delivery but not yet moved into
	// the batch buffer, so Flush can vouch for the full handoff.
	pending atomic.Int64
	name         string
	mu           sync.Mutex
	closed       atomic.Bool
	syncMode     bool // Bypass the channel for deterministic tests.
}

// NewCollector creates a collector with the specified name and buffer
// size and starts its receive loop.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:     name,
		events:   make([]*Event, 0, 8), // Start with small capacity.
		eventsCh: make(chan *Event, bufferSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.start()
	return c
}

// start runs the collector's main loop, receiving payloads from the
// channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining payloads before shutdown.
			for {
				select {
				case event := <-c.eventsCh:
					c.receive(event)
				default:
					return
				}
			}
		case event := <-c.eventsCh:
			c.receive(event)
		}
	}
}

// SendEvent implements Transport with backpressure protection: if the
// channel is full the payload is dropped and the drop counter is
// incremented. In sync mode payloads are buffered directly.
func (c *Collector) SendEvent(event *Event) {
	if event == nil || c.closed.Load() {
		c.droppedCount.Add(1)
		return
	}

	if c.syncMode {
		c.buffer(event)
		return
	}

	c.pending.Add(1)
	select {
	case c.eventsCh <- event:
		// Successfully queued.
	default:
		// Channel full - drop to avoid blocking the host.
		c.pending.Add(-1)
		c.droppedCount.Add(1)
	}
}

// receive moves one queued payload into the batch and settles its
// in-flight count, in that order, so a drained Flush implies a visible
// Export.
func (c *Collector) receive(event *Event) {
	c.buffer(event)
	c.pending.Add(-1)
}

// buffer appends a payload to the internal batch.
func (c *Collector) buffer(event *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Flush implements Transport: it waits until every accepted payload has
// landed in the batch buffer or the timeout elapses.
func (c *Collector) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.pending.Load() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Export returns the buffered payloads and clears the internal batch.
func (c *Collector) Export() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return nil
	}

	result := make([]*Event, len(c.events))
	copy(result, c.events)

	// Only shrink if the buffer is very oversized to avoid allocation
	// churn.
	if cap(c.events) > 256 && len(c.events) < cap(c.events)/8 {
		c.events = make([]*Event, 0, cap(c.events)/4)
	} else {
		c.events = c.events[:0]
	}
	return result
}

// Count returns the current number of buffered payloads.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// DroppedCount returns the total number of payloads dropped due to
// backpressure or a closed collector.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection: payloads are buffered
// directly without the channel, making tests deterministic.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode = sync
}

// Reset clears the batch buffer and the drop counter. Does not stop the
// receive loop; use Close for that.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.droppedCount.Store(0)
}

// Close shuts down the collector gracefully, draining queued payloads
// into the batch buffer.
func (c *Collector) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.done:
		// Clean shutdown completed.
	case <-time.After(100 * time.Millisecond):
		// Timed out waiting for the receive loop; buffered payloads
		// remain exportable.
	}
}
