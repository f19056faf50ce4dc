package hal

import "sync"

// SimChip is the simulated interrupt controller. Devices raise bottom
// halves from any goroutine; the kernel drains them single-threaded on
// its idle path, so capsule client callbacks always run on the kernel
// thread, the way a deferred interrupt handler would.
type SimChip struct {
	mu      sync.Mutex
	pending []func()

	wake chan struct{}
}

// NewSimChip creates an idle simulated chip.
func NewSimChip() *SimChip {
	return &SimChip{wake: make(chan struct{}, 1)}
}

// Wake kicks the chip out of its sleep state without queueing work. The
// board's tick forwarder uses this so a sleeping kernel observes time.
func (c *SimChip) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Raise queues a bottom half and wakes the chip if it is sleeping.
func (c *SimChip) Raise(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, fn)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// HasPendingInterrupts implements kernel.Chip.
func (c *SimChip) HasPendingInterrupts() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// ServiceInterrupts implements kernel.Chip: runs every bottom half queued
// so far, in raise order. Work a handler raises while running is serviced
// on the next pass, not this one.
func (c *SimChip) ServiceInterrupts() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
}

// Sleep implements kernel.Chip: block until an interrupt is raised or
// something calls Wake.
func (c *SimChip) Sleep() {
	<-c.wake
}
