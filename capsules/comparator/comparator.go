// Package comparator exposes the analog comparators as driver 0x7.
//
// Command 1 performs a single comparison on a channel (value 1 while
// Vp > Vn), command 2 a window comparison, commands 3 and 4 arm and
// disarm interrupt-based comparison. Subscribe slot 0 fires with
// r0 = channel when an armed comparator trips.
package comparator

import (
	"tern/hil"
	"tern/kernel"
)

const (
	cmdCheck      = 0
	cmdCompare    = 1
	cmdWindow     = 2
	cmdEnableIRQ  = 3
	cmdDisableIRQ = 4
)

const subFired = 0

// Comparator is the analog comparator capsule.
type Comparator struct {
	dev   hil.AnalogComparator
	fired map[kernel.ProcessID]kernel.Callback
}

// New wires the capsule to a comparator bank and registers for trips.
func New(dev hil.AnalogComparator) *Comparator {
	c := &Comparator{dev: dev, fired: make(map[kernel.ProcessID]kernel.Callback)}
	dev.SetClient(c)
	return c
}

// Command implements kernel.Driver.
func (c *Comparator) Command(pid kernel.ProcessID, cmd, a0, a1 uint32) (kernel.Status, uint32) {
	if a0 > 0xff {
		return kernel.StatusInvalid, 0
	}
	ch := uint8(a0)
	switch cmd {
	case cmdCheck:
		return kernel.StatusSuccess, 0
	case cmdCompare:
		v, err := c.dev.Comparison(ch)
		if err != nil {
			return kernel.StatusFromHIL(err), 0
		}
		return kernel.StatusSuccess, boolWord(v)
	case cmdWindow:
		v, err := c.dev.WindowComparison(ch)
		if err != nil {
			return kernel.StatusFromHIL(err), 0
		}
		return kernel.StatusSuccess, boolWord(v)
	case cmdEnableIRQ:
		return kernel.StatusFromHIL(c.dev.EnableInterrupts(ch)), 0
	case cmdDisableIRQ:
		return kernel.StatusFromHIL(c.dev.DisableInterrupts(ch)), 0
	default:
		return kernel.StatusNoSupport, 0
	}
}

// Allow implements kernel.Driver. The comparator driver takes no buffers.
func (c *Comparator) Allow(kernel.ProcessID, uint32, kernel.AppSlice) kernel.Status {
	return kernel.StatusNoSupport
}

// Subscribe implements kernel.Driver.
func (c *Comparator) Subscribe(pid kernel.ProcessID, num uint32, cb kernel.Callback) kernel.Status {
	if num != subFired {
		return kernel.StatusInvalid
	}
	c.fired[pid] = cb
	return kernel.StatusSuccess
}

// Fired implements hil.ComparatorClient: every subscribed process hears
// about the trip.
func (c *Comparator) Fired(channel uint8) {
	for _, cb := range c.fired {
		cb.Schedule(uint32(channel), 0, 0)
	}
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
