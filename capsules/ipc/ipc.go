// Package ipc lets processes exchange data through the same
// command/allow/subscribe surface as every other driver (driver 0x10000).
//
// A sender shares a buffer by allowing it on the slot numbered after the
// receiver's pid, then notifies with command 1 (arg0 = receiver pid). The
// receiver hears the notify on the subscribe slot numbered after the
// sender's pid, with r0 = sender pid and r1 = shared length, and pulls the
// bytes into its own allowed buffer with command 2 (arg0 = sender pid).
// There is no cross-process memory mapping; the copy is the transfer.
package ipc

import (
	"tern/kernel"
)

const (
	cmdCheck  = 0
	cmdNotify = 1
	cmdFetch  = 2
)

type procState struct {
	// shared[n] is the buffer this process has shared with process n.
	shared map[kernel.ProcessID]kernel.AppSlice
	// notify[n] fires when process n notifies this process.
	notify map[kernel.ProcessID]kernel.Callback
}

// IPC is the inter-process communication capsule.
type IPC struct {
	k     *kernel.Kernel
	procs map[kernel.ProcessID]*procState
}

// New creates the IPC capsule for a kernel instance.
func New(k *kernel.Kernel) *IPC {
	return &IPC{k: k, procs: make(map[kernel.ProcessID]*procState)}
}

func (i *IPC) proc(pid kernel.ProcessID) *procState {
	s, ok := i.procs[pid]
	if !ok {
		s = &procState{
			shared: make(map[kernel.ProcessID]kernel.AppSlice),
			notify: make(map[kernel.ProcessID]kernel.Callback),
		}
		i.procs[pid] = s
	}
	return s
}

// Command implements kernel.Driver.
func (i *IPC) Command(pid kernel.ProcessID, cmd, a0, a1 uint32) (kernel.Status, uint32) {
	switch cmd {
	case cmdCheck:
		return kernel.StatusSuccess, 0
	case cmdNotify:
		return i.notify(pid, a0), 0
	case cmdFetch:
		return i.fetch(pid, a0)
	default:
		return kernel.StatusNoSupport, 0
	}
}

// Allow implements kernel.Driver: share (or unshare) a buffer with the
// process whose pid is the slot number.
func (i *IPC) Allow(pid kernel.ProcessID, num uint32, slice kernel.AppSlice) kernel.Status {
	peer, ok := i.peer(num)
	if !ok {
		return kernel.StatusInvalid
	}
	s := i.proc(pid)
	if slice.Len() == 0 {
		delete(s.shared, peer)
	} else {
		s.shared[peer] = slice
	}
	return kernel.StatusSuccess
}

// Subscribe implements kernel.Driver: listen for notifies from the
// process whose pid is the slot number.
func (i *IPC) Subscribe(pid kernel.ProcessID, num uint32, cb kernel.Callback) kernel.Status {
	peer, ok := i.peer(num)
	if !ok {
		return kernel.StatusInvalid
	}
	i.proc(pid).notify[peer] = cb
	return kernel.StatusSuccess
}

func (i *IPC) peer(num uint32) (kernel.ProcessID, bool) {
	if int(num) >= i.k.NumProcesses() {
		return 0, false
	}
	return kernel.ProcessID(num), true
}

func (i *IPC) notify(from kernel.ProcessID, target uint32) kernel.Status {
	to, ok := i.peer(target)
	if !ok {
		return kernel.StatusInvalid
	}
	sender := i.proc(from)
	shared := sender.shared[to]

	receiver, ok := i.procs[to]
	if !ok {
		return kernel.StatusFail
	}
	cb, ok := receiver.notify[from]
	if !ok {
		return kernel.StatusFail
	}
	if !cb.Schedule(uint32(from), uint32(shared.Len()), 0) {
		return kernel.StatusBusy
	}
	return kernel.StatusSuccess
}

// fetch copies the buffer the sender shared with pid into the buffer pid
// has shared back toward the sender. Returns the copied length.
func (i *IPC) fetch(pid kernel.ProcessID, source uint32) (kernel.Status, uint32) {
	from, ok := i.peer(source)
	if !ok {
		return kernel.StatusInvalid, 0
	}
	sender, ok := i.procs[from]
	if !ok {
		return kernel.StatusFail, 0
	}
	src := sender.shared[pid].Bytes()
	if src == nil {
		return kernel.StatusFail, 0
	}
	dst := i.proc(pid).shared[from].Bytes()
	if dst == nil {
		return kernel.StatusInvalid, 0
	}
	n := copy(dst, src)
	return kernel.StatusSuccess, uint32(n)
}
