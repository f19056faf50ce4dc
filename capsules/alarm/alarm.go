// Package alarm gives processes the kernel timebase as driver 0x0.
//
// Command 1 arms a one-shot alarm a0 ticks from now, command 2 cancels
// it, command 3 reads the current tick. Subscribe slot 0 fires when the
// alarm expires, with r0 = the low word of the tick it fired at.
package alarm

import "tern/kernel"

const (
	cmdCheck   = 0
	cmdOneshot = 1
	cmdCancel  = 2
	cmdNow     = 3
)

const subFired = 0

// Alarm is the timer capsule. Advance runs on the kernel thread, pushed
// through the chip's bottom-half path by the board's tick forwarder.
type Alarm struct {
	now     uint64
	armedAt map[kernel.ProcessID]uint64
	fired   map[kernel.ProcessID]kernel.Callback
}

// New creates the timer capsule.
func New() *Alarm {
	return &Alarm{
		armedAt: make(map[kernel.ProcessID]uint64),
		fired:   make(map[kernel.ProcessID]kernel.Callback),
	}
}

// Command implements kernel.Driver.
func (a *Alarm) Command(pid kernel.ProcessID, cmd, a0, a1 uint32) (kernel.Status, uint32) {
	switch cmd {
	case cmdCheck:
		return kernel.StatusSuccess, 0
	case cmdOneshot:
		if a0 == 0 {
			return kernel.StatusInvalid, 0
		}
		a.armedAt[pid] = a.now + uint64(a0)
		return kernel.StatusSuccess, 0
	case cmdCancel:
		if _, ok := a.armedAt[pid]; !ok {
			return kernel.StatusAlready, 0
		}
		delete(a.armedAt, pid)
		return kernel.StatusSuccess, 0
	case cmdNow:
		return kernel.StatusSuccess, uint32(a.now)
	default:
		return kernel.StatusNoSupport, 0
	}
}

// Allow implements kernel.Driver. The timer takes no buffers.
func (a *Alarm) Allow(kernel.ProcessID, uint32, kernel.AppSlice) kernel.Status {
	return kernel.StatusNoSupport
}

// Subscribe implements kernel.Driver.
func (a *Alarm) Subscribe(pid kernel.ProcessID, num uint32, cb kernel.Callback) kernel.Status {
	if num != subFired {
		return kernel.StatusInvalid
	}
	a.fired[pid] = cb
	return kernel.StatusSuccess
}

// Advance moves the timebase forward and fires expired alarms.
func (a *Alarm) Advance(now uint64) {
	if now <= a.now {
		return
	}
	a.now = now
	for pid, at := range a.armedAt {
		if at > now {
			continue
		}
		delete(a.armedAt, pid)
		if cb, ok := a.fired[pid]; ok {
			cb.Schedule(uint32(now), 0, 0)
		}
	}
}
