package kernel

// Well-known driver numbers. Sparse on purpose: the number is ABI, the
// table slot is not.
const (
	DriverAlarm      = 0x0
	DriverConsole    = 0x1
	DriverADC        = 0x5
	DriverComparator = 0x7
	DriverIPC        = 0x10000
)

// Driver is the syscall-facing surface a capsule exposes. All three calls
// run synchronously on the kernel thread and must not block; asynchronous
// hardware completion comes back later through a scheduled Callback.
type Driver interface {
	Command(pid ProcessID, cmd, a0, a1 uint32) (Status, uint32)
	Allow(pid ProcessID, num uint32, slice AppSlice) Status
	Subscribe(pid ProcessID, num uint32, cb Callback) Status
}

const maxDrivers = 16

type driverEntry struct {
	num uint32
	d   Driver
}

// RegisterDriver installs a capsule under its driver number. Board-time
// only; re-registering a number replaces the capsule.
func (k *Kernel) RegisterDriver(num uint32, d Driver) error {
	for i := uint8(0); i < k.driverCount; i++ {
		if k.drivers[i].num == num {
			k.drivers[i].d = d
			return nil
		}
	}
	if k.driverCount >= maxDrivers {
		return ErrTableFull
	}
	k.drivers[k.driverCount] = driverEntry{num: num, d: d}
	k.driverCount++
	return nil
}

func (k *Kernel) driver(num uint32) (Driver, uint8, bool) {
	for i := uint8(0); i < k.driverCount; i++ {
		if k.drivers[i].num == num {
			return k.drivers[i].d, i, true
		}
	}
	return nil, 0, false
}

// Context is the syscall surface handed to process code for the duration
// of one turn.
type Context struct {
	k *Kernel
	p *Process
}

// PID returns the calling process's slot index.
func (c *Context) PID() ProcessID { return c.p.id }

// Memory returns the app-accessible part of the process's region. Offsets
// passed to Allow index into this slice.
func (c *Context) Memory() []byte {
	return c.p.mem[:c.p.grantBrk]
}

// Command invokes a capsule operation synchronously and returns its status
// plus one result word.
func (c *Context) Command(driver, cmd, a0, a1 uint32) (Status, uint32) {
	d, _, ok := c.k.driver(driver)
	if !ok {
		return c.ret(StatusNoDevice), 0
	}
	st, val := d.Command(c.p.id, cmd, a0, a1)
	c.ret(st)
	c.p.regs.R1 = val
	return st, val
}

// Allow grants the capsule read-write access to the buffer at
// [addr, addr+length) in process memory. Length zero revokes the slot.
// A range outside the app-accessible region fails with StatusInvalid and
// no memory is touched.
func (c *Context) Allow(driver, num, addr, length uint32) Status {
	d, slot, ok := c.k.driver(driver)
	if !ok {
		return c.ret(StatusNoDevice)
	}
	if num >= allowSlots {
		return c.ret(StatusInvalid)
	}

	var slice AppSlice
	if length > 0 {
		end := uint64(addr) + uint64(length)
		if end > uint64(c.p.grantBrk) {
			return c.ret(StatusInvalid)
		}
		slice = AppSlice{k: c.k, pid: c.p.id, gen: c.p.gen, off: addr, length: length}
	}

	st := d.Allow(c.p.id, num, slice)
	if st == StatusSuccess {
		c.p.allows[slot][num] = appRegion{off: addr, length: length, set: length > 0}
	}
	return c.ret(st)
}

// Subscribe registers fn for upcalls on the (driver, num) slot. A nil fn
// unsubscribes.
func (c *Context) Subscribe(driver, num uint32, fn UpcallFn) Status {
	d, slot, ok := c.k.driver(driver)
	if !ok {
		return c.ret(StatusNoDevice)
	}
	if num >= subSlots {
		return c.ret(StatusInvalid)
	}

	cb := Callback{k: c.k, pid: c.p.id, gen: c.p.gen, driver: driver, sub: num}
	if fn == nil {
		cb = Callback{}
	}
	st := d.Subscribe(c.p.id, num, cb)
	if st == StatusSuccess {
		c.p.subs[slot][num] = fn
	}
	return c.ret(st)
}

// YieldWait parks the process after this turn until an upcall is queued
// for it. Plain yield is returning from Step.
func (c *Context) YieldWait() {
	c.p.waiting = true
}

// ret records the syscall status in the saved register state, as the
// return path into process code would.
func (c *Context) ret(st Status) Status {
	c.p.regs.R0 = uint32(st)
	return st
}
