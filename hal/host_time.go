//go:build !tinygo

package hal

import "time"

// hostTime turns wall-clock progress into the 1ms tick stream the board
// forwards to the kernel and chip. The window and headless runners drive
// step from their frame loops; standalone loop mode starts a ticker.
type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// Start self-drives the tick stream for loop-mode hosts.
func (t *hostTime) Start() {
	go func() {
		tk := time.NewTicker(time.Millisecond)
		defer tk.Stop()
		for range tk.C {
			t.stepN(1)
		}
	}()
}

// step converts elapsed wall time into whole ticks.
func (t *hostTime) step() {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(1)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	const tickDur = time.Millisecond
	ticks := uint64(t.acc / tickDur)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % tickDur
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
