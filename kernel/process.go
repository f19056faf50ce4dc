package kernel

import "errors"

// ProcessID indexes a process slot. Slots are assigned in installation
// order and never move.
type ProcessID uint8

// State is the lifecycle state of a process slot.
//
// Only Running executes instructions; everything else is scheduler
// bookkeeping. Faulted is entered on a contained violation and leads to
// Stopped unless the board's fault policy restarts the slot.
type State uint8

const (
	StateUnstarted State = iota
	StateRunning
	StateYielded
	StateFaulted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateYielded:
		return "yielded"
	case StateFaulted:
		return "faulted"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Registers is the saved machine state of a process. The kernel writes
// upcall arguments into r0-r2 before delivery and the last syscall status
// into r0 on return, mirroring what a hardware context switch would do.
type Registers struct {
	R0 uint32
	R1 uint32
	R2 uint32
	R3 uint32
	PC uint32
	SP uint32
}

// App is the body of a process: one cooperative execution turn per Step.
//
// Returning from Step yields the remainder of the turn. Syscalls are issued
// inline through the Context. A panic inside Step is the process's problem,
// not the kernel's: the slot faults, everything else keeps running.
type App interface {
	Step(*Context)
}

const (
	maxProcs   = 8
	subSlots   = 8
	allowSlots = 8
	grantAlign = 8
)

var (
	ErrNoProcess  = errors.New("no such process")
	ErrNoMem      = errors.New("process memory exhausted")
	ErrGrantBusy  = errors.New("grant already entered")
	ErrTableFull  = errors.New("table full")
	ErrBadRequest = errors.New("bad request")
)

// appRegion is one allowed buffer: an offset/length pair inside process
// memory, validated at allow time.
type appRegion struct {
	off    uint32
	length uint32
	set    bool
}

type grantEntry struct {
	off       uint32
	size      uint32
	allocated bool
	busy      bool
}

// Process is one isolated schedulable unit.
type Process struct {
	id   ProcessID
	name string
	gen  uint32

	app   App
	state State
	// waiting marks a yielded process that blocks until its next upcall.
	waiting bool

	// mem is the process's contiguous region. The app-accessible part is
	// [0, grantBrk); grant allocations are carved downward from the top.
	mem      []byte
	grantBrk uint32

	regs    Registers
	upcalls upcallQueue
	subs    [maxDrivers][subSlots]UpcallFn
	allows  [maxDrivers][allowSlots]appRegion
	grants  [maxGrants]grantEntry
}

// ID returns the process's slot index.
func (p *Process) ID() ProcessID { return p.id }

// Name returns the name the board installed the process under.
func (p *Process) Name() string { return p.name }

// State returns the current lifecycle state.
func (p *Process) State() State { return p.state }

// Registers returns a copy of the saved register state.
func (p *Process) Registers() Registers { return p.regs }

// MemSize returns the total size of the process's memory region.
func (p *Process) MemSize() int { return len(p.mem) }

// runnable reports whether the scheduler may pick this slot.
func (p *Process) runnable() bool {
	switch p.state {
	case StateUnstarted:
		return true
	case StateYielded:
		return !p.waiting || !p.upcalls.empty()
	default:
		return false
	}
}

// AppSlice is a bounds-checked view of an allowed process buffer.
//
// The zero value is the revoked slice. Access re-validates process liveness
// and generation, so a slice handed to a capsule goes dead the moment its
// process faults out or is restarted.
type AppSlice struct {
	k      *Kernel
	pid    ProcessID
	gen    uint32
	off    uint32
	length uint32
}

// Len returns the allowed length in bytes.
func (s AppSlice) Len() int { return int(s.length) }

// Valid reports whether the slice still refers to live process memory.
func (s AppSlice) Valid() bool {
	if s.k == nil {
		return false
	}
	p := s.k.process(s.pid)
	if p == nil || p.gen != s.gen {
		return false
	}
	switch p.state {
	case StateFaulted, StateStopped:
		return false
	}
	return uint64(s.off)+uint64(s.length) <= uint64(p.grantBrk)
}

// Bytes returns the underlying view, or nil if the slice is stale.
func (s AppSlice) Bytes() []byte {
	if s.length == 0 || !s.Valid() {
		return nil
	}
	p := s.k.process(s.pid)
	return p.mem[s.off : s.off+s.length]
}
