package kernel

// FaultInfo describes one contained process fault.
type FaultInfo struct {
	PID   ProcessID
	Name  string
	Value any
	Stack []byte
}

// FaultAction is what the board's policy wants done with a faulted slot.
type FaultAction uint8

const (
	// FaultHold leaves the slot in Faulted for external inspection.
	FaultHold FaultAction = iota
	// FaultStop parks the slot terminally.
	FaultStop
	// FaultRestart reinstalls the slot as Unstarted with wiped state.
	FaultRestart
)

// FaultPolicy decides what happens to a process after the kernel has
// contained its fault. Detection and containment live in the kernel; the
// recovery decision is the board's.
type FaultPolicy interface {
	OnFault(p *Process) FaultAction
}

// HoldOnFault is the default policy: faulted slots stay faulted.
type HoldOnFault struct{}

func (HoldOnFault) OnFault(*Process) FaultAction { return FaultHold }

// StopOnFault parks faulted slots terminally.
type StopOnFault struct{}

func (StopOnFault) OnFault(*Process) FaultAction { return FaultStop }

// RestartOnFault restarts faulted slots immediately.
type RestartOnFault struct{}

func (RestartOnFault) OnFault(*Process) FaultAction { return FaultRestart }

// SetFaultHandler installs a hook that observes every contained fault,
// stack capture included. It runs on the kernel thread and must not panic.
func (k *Kernel) SetFaultHandler(fn func(FaultInfo)) {
	k.faultHandler = fn
}

// InjectFault forces a memory-protection-trap transition on a slot. Trap
// sources (the software MPU, tests) use this as their entry point into
// fault handling.
func (k *Kernel) InjectFault(pid ProcessID) error {
	p := k.process(pid)
	if p == nil {
		return ErrNoProcess
	}
	k.fault(p, "memory protection trap")
	return nil
}

// fault contains a violation to its slot and applies the board policy.
// Other slots and the kernel itself are untouched.
func (k *Kernel) fault(p *Process, v any) {
	p.state = StateFaulted
	p.waiting = false
	k.faultedCount++

	if k.faultHandler != nil {
		k.faultHandler(FaultInfo{PID: p.id, Name: p.name, Value: v, Stack: captureStack()})
	}

	switch k.policy.OnFault(p) {
	case FaultStop:
		p.state = StateStopped
	case FaultRestart:
		_ = k.Restart(p.id)
	}
}
