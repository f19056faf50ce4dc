package kernel

// UpcallFn is the function a process registers via subscribe. It runs in
// process context when the kernel delivers the matching upcall.
type UpcallFn func(r0, r1, r2 uint32)

// Upcall is one queued callback invocation: which subscription it belongs
// to plus up to three argument words.
type Upcall struct {
	Driver uint32
	Sub    uint32
	R0     uint32
	R1     uint32
	R2     uint32
}

const upcallSlots = 8

// upcallQueue is a bounded FIFO ring. When full, new enqueues are dropped;
// queued upcalls are never reordered or coalesced.
type upcallQueue struct {
	head  uint8
	tail  uint8
	slots [upcallSlots]Upcall
}

func (q *upcallQueue) push(u Upcall) bool {
	if q.head-q.tail >= upcallSlots {
		return false
	}
	q.slots[q.head%upcallSlots] = u
	q.head++
	return true
}

func (q *upcallQueue) pop() (Upcall, bool) {
	if q.tail == q.head {
		return Upcall{}, false
	}
	u := q.slots[q.tail%upcallSlots]
	q.tail++
	return u, true
}

func (q *upcallQueue) empty() bool {
	return q.tail == q.head
}

func (q *upcallQueue) reset() {
	q.head = 0
	q.tail = 0
}

// Callback is the handle a capsule holds for one (process, driver,
// subscribe slot). Scheduling through it enqueues an upcall; the process
// function actually invoked is whatever the process has registered by the
// time the upcall is delivered.
type Callback struct {
	k      *Kernel
	pid    ProcessID
	gen    uint32
	driver uint32
	sub    uint32
}

// Valid reports whether the handle still refers to a live subscription
// target. Handles go stale when their process is restarted.
func (cb Callback) Valid() bool {
	if cb.k == nil {
		return false
	}
	p := cb.k.process(cb.pid)
	return p != nil && p.gen == cb.gen
}

// Schedule enqueues an upcall for the process. It reports false if the
// handle is stale, the process can no longer run, or its queue is full.
func (cb Callback) Schedule(r0, r1, r2 uint32) bool {
	if cb.k == nil {
		return false
	}
	p := cb.k.process(cb.pid)
	if p == nil || p.gen != cb.gen {
		return false
	}
	switch p.state {
	case StateFaulted, StateStopped:
		return false
	}
	return p.upcalls.push(Upcall{Driver: cb.driver, Sub: cb.sub, R0: r0, R1: r1, R2: r2})
}
