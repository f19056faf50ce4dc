// Package kernel implements a cooperatively scheduled microcontroller
// kernel: a fixed table of isolated processes, a round-robin scheduler,
// per-capsule grant regions carved from process memory, and the
// command/allow/subscribe/yield syscall surface capsules serve.
package kernel

import (
	"sync/atomic"

	"tern/hil"
)

// Chip is the hardware the kernel idles against: deferred interrupt
// bottom halves and the low-power wait state.
type Chip interface {
	HasPendingInterrupts() bool
	ServiceInterrupts()
	Sleep()
}

// Kernel owns the process slots and drives everything. One instance per
// board, constructed once, never torn down.
type Kernel struct {
	procs     [maxProcs]*Process
	procCount uint8
	rr        uint8

	drivers     [maxDrivers]driverEntry
	driverCount uint8
	grantCount  uint8

	mpu          hil.MPU
	policy       FaultPolicy
	faultHandler func(FaultInfo)

	faultedCount uint32
	ticks        atomic.Uint64
}

// New creates an empty kernel with no memory protection hardware and the
// default hold-on-fault policy.
func New() *Kernel {
	return &Kernel{mpu: hil.NullMPU{}, policy: HoldOnFault{}}
}

// SetMPU installs the board's memory protection unit. Board-time only.
func (k *Kernel) SetMPU(m hil.MPU) {
	if m == nil {
		m = hil.NullMPU{}
	}
	k.mpu = m
}

// SetFaultPolicy installs the board's response to process faults.
func (k *Kernel) SetFaultPolicy(p FaultPolicy) {
	if p == nil {
		p = HoldOnFault{}
	}
	k.policy = p
}

// AddProcess installs a process into the next free slot with a memory
// region of memSize bytes. Board-time only; there is no dynamic creation.
func (k *Kernel) AddProcess(name string, app App, memSize int) (ProcessID, error) {
	if app == nil || memSize <= 0 {
		return 0, ErrBadRequest
	}
	if k.procCount >= maxProcs {
		return 0, ErrTableFull
	}
	id := ProcessID(k.procCount)
	k.procs[id] = &Process{
		id:       id,
		name:     name,
		app:      app,
		mem:      make([]byte, memSize),
		grantBrk: uint32(memSize),
		state:    StateUnstarted,
	}
	k.procCount++
	return id, nil
}

// Process returns the process in a slot, if any.
func (k *Kernel) Process(pid ProcessID) (*Process, bool) {
	p := k.process(pid)
	return p, p != nil
}

func (k *Kernel) process(pid ProcessID) *Process {
	if uint8(pid) >= k.procCount {
		return nil
	}
	return k.procs[pid]
}

// NumProcesses returns the number of installed slots.
func (k *Kernel) NumProcesses() int { return int(k.procCount) }

// FaultedCount returns how many faults processes have taken since boot.
func (k *Kernel) FaultedCount() uint32 { return k.faultedCount }

// Tick advances the kernel timebase. Safe to call from a tick goroutine.
func (k *Kernel) Tick() { k.ticks.Add(1) }

// Ticks returns the current tick count.
func (k *Kernel) Ticks() uint64 { return k.ticks.Load() }

// Loop runs the scheduler forever. It never returns under normal
// operation.
func (k *Kernel) Loop(chip Chip) {
	for {
		k.Step(chip)
	}
}

// Step performs one kernel loop iteration: service pending interrupts,
// then give one process a turn. With nothing to do it puts the chip into
// its low-power wait. It reports whether any work happened, which is what
// bounded smoke runs and tests key off.
func (k *Kernel) Step(chip Chip) bool {
	did := false
	if chip != nil && chip.HasPendingInterrupts() {
		chip.ServiceInterrupts()
		did = true
	}
	if k.scheduleOne() {
		did = true
	}
	if !did && chip != nil {
		chip.Sleep()
	}
	return did
}

// RunPending is the frame-driven alternative to Loop: it services
// interrupts and gives out turns until nothing is runnable or the budget
// is spent, and never enters the sleep state. Returns the number of loop
// iterations that did work.
func (k *Kernel) RunPending(chip Chip, budget int) int {
	n := 0
	for n < budget {
		did := false
		if chip != nil && chip.HasPendingInterrupts() {
			chip.ServiceInterrupts()
			did = true
		}
		if k.scheduleOne() {
			did = true
		}
		if !did {
			break
		}
		n++
	}
	return n
}

// scheduleOne picks the next runnable slot round-robin, strictly cyclic
// from the last-run slot, and runs one turn.
func (k *Kernel) scheduleOne() bool {
	n := k.procCount
	if n == 0 {
		return false
	}
	for i := uint8(0); i < n; i++ {
		id := (k.rr + i) % n
		p := k.procs[id]
		if p == nil || !p.runnable() {
			continue
		}
		k.rr = (id + 1) % n
		k.runTurn(p)
		return true
	}
	return false
}

// runTurn executes one turn for a process: deliver the oldest queued
// upcall if there is one, otherwise step the process body. Panics in
// process code are contained to the slot.
func (k *Kernel) runTurn(p *Process) {
	k.protect(p)

	defer func() {
		if v := recover(); v != nil {
			k.fault(p, v)
		}
	}()

	if u, ok := p.upcalls.pop(); ok {
		p.waiting = false
		p.state = StateRunning
		p.regs.R0 = u.R0
		p.regs.R1 = u.R1
		p.regs.R2 = u.R2
		if _, slot, ok := k.driver(u.Driver); ok {
			if fn := p.subs[slot][u.Sub]; fn != nil {
				fn(u.R0, u.R1, u.R2)
			}
		}
	} else {
		p.state = StateRunning
		p.app.Step(&Context{k: k, p: p})
	}

	p.state = StateYielded
}

// protect points the MPU at the process about to run: its app region is
// fully accessible, its grant area kernel-only.
func (k *Kernel) protect(p *Process) {
	regions := []hil.Region{
		{Start: 0, End: uintptr(p.grantBrk), Read: hil.Full, Write: hil.Full, Execute: hil.Full},
		{Start: uintptr(p.grantBrk), End: uintptr(len(p.mem)), Read: hil.PrivilegedOnly, Write: hil.PrivilegedOnly},
	}
	_ = k.mpu.ConfigureRegions(regions)
	k.mpu.Enable()
}

// Restart wipes a slot back to Unstarted: memory zeroed, grants, allows,
// subscriptions and queued upcalls dropped, generation bumped so every
// outstanding AppSlice and Callback handle goes stale.
func (k *Kernel) Restart(pid ProcessID) error {
	p := k.process(pid)
	if p == nil {
		return ErrNoProcess
	}
	for i := range p.mem {
		p.mem[i] = 0
	}
	p.grantBrk = uint32(len(p.mem))
	p.grants = [maxGrants]grantEntry{}
	p.allows = [maxDrivers][allowSlots]appRegion{}
	p.subs = [maxDrivers][subSlots]UpcallFn{}
	p.upcalls.reset()
	p.regs = Registers{}
	p.waiting = false
	p.gen++
	p.state = StateUnstarted
	return nil
}

// Stop parks a slot terminally until an external restart decision.
func (k *Kernel) Stop(pid ProcessID) error {
	p := k.process(pid)
	if p == nil {
		return ErrNoProcess
	}
	p.state = StateStopped
	return nil
}
