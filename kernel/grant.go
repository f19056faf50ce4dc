package kernel

const maxGrants = 8

// Grant gives one capsule a fixed-size region inside each process that
// interacts with it. Regions are carved from the top of the process's
// memory so a dying process takes its capsule state with it and nothing
// leaks into another slot.
type Grant struct {
	k    *Kernel
	idx  uint8
	size uint32
}

// NewGrant registers a per-process region of the given size. Called once
// per capsule at board construction.
func (k *Kernel) NewGrant(size uint32) (*Grant, error) {
	if size == 0 {
		return nil, ErrBadRequest
	}
	if k.grantCount >= maxGrants {
		return nil, ErrTableFull
	}
	g := &Grant{k: k, idx: k.grantCount, size: size}
	k.grantCount++
	return g, nil
}

// Size returns the per-process region size in bytes.
func (g *Grant) Size() uint32 { return g.size }

// Enter obtains exclusive access to this grant's region inside the process
// and invokes fn with a bounds-checked view of it. The region is allocated
// from the process's free memory on first entry; ErrNoMem if the process
// has none left. Nested entry for the same (process, grant) pair fails with
// ErrGrantBusy instead of aliasing. The busy flag clears on every exit
// path, including a panic in fn.
func (g *Grant) Enter(pid ProcessID, fn func(region []byte) error) error {
	if g == nil || g.k == nil {
		return ErrBadRequest
	}
	p := g.k.process(pid)
	if p == nil {
		return ErrNoProcess
	}
	switch p.state {
	case StateFaulted, StateStopped:
		return ErrNoProcess
	}

	e := &p.grants[g.idx]
	if !e.allocated {
		size := (g.size + grantAlign - 1) &^ uint32(grantAlign-1)
		if size > p.grantBrk {
			return ErrNoMem
		}
		brk := p.grantBrk - size
		e.off = brk
		e.size = g.size
		e.allocated = true
		p.grantBrk = brk
	}
	if e.busy {
		return ErrGrantBusy
	}
	e.busy = true
	defer func() { e.busy = false }()
	return fn(p.mem[e.off : e.off+e.size])
}
