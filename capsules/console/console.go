// Package console exposes a UART to processes as driver 0x1.
//
// Allow slot 0 is the transmit buffer, slot 1 the receive buffer.
// Subscribe slot 0 fires on transmit completion, slot 1 on receive
// completion, both with r0 = status and r1 = byte count. Command 1 starts
// a transmit, command 2 a receive, command 3 aborts a pending receive.
package console

import (
	"encoding/binary"

	"tern/hil"
	"tern/kernel"
)

const (
	cmdCheck        = 0
	cmdTransmit     = 1
	cmdReceive      = 2
	cmdAbortReceive = 3
)

const (
	allowTx = 0
	allowRx = 1

	subTxDone = 0
	subRxDone = 1
)

// Grant layout (little-endian):
//   - u8:  flags (bit0 tx pending, bit1 rx pending)
//   - u32 at 4: requested tx length
//   - u32 at 8: requested rx length
const grantSize = 12

const (
	flagTxPending = 1 << 0
	flagRxPending = 1 << 1
)

// handles are the per-process capability values; the POD driver state
// lives in the process's grant region.
type handles struct {
	tx     kernel.AppSlice
	rx     kernel.AppSlice
	txDone kernel.Callback
	rxDone kernel.Callback
}

// Console is the serial driver capsule. One UART, shared by all
// processes; the transmitter and receiver are each claimed by at most one
// process at a time.
type Console struct {
	uart  hil.UART
	grant *kernel.Grant

	procs map[kernel.ProcessID]*handles

	txOwner  kernel.ProcessID
	txActive bool
	rxOwner  kernel.ProcessID
	rxActive bool
}

// New wires a console capsule to a configured UART. The capsule registers
// itself as the UART's completion client.
func New(k *kernel.Kernel, uart hil.UART) (*Console, error) {
	g, err := k.NewGrant(grantSize)
	if err != nil {
		return nil, err
	}
	c := &Console{uart: uart, grant: g, procs: make(map[kernel.ProcessID]*handles)}
	uart.SetClient(c)
	return c, nil
}

func (c *Console) proc(pid kernel.ProcessID) *handles {
	h, ok := c.procs[pid]
	if !ok {
		h = &handles{}
		c.procs[pid] = h
	}
	return h
}

// Command implements kernel.Driver.
func (c *Console) Command(pid kernel.ProcessID, cmd, a0, a1 uint32) (kernel.Status, uint32) {
	switch cmd {
	case cmdCheck:
		return kernel.StatusSuccess, 0
	case cmdTransmit:
		return c.transmit(pid, a0), 0
	case cmdReceive:
		return c.receive(pid, a0), 0
	case cmdAbortReceive:
		return c.abortReceive(pid), 0
	default:
		return kernel.StatusNoSupport, 0
	}
}

// Allow implements kernel.Driver.
func (c *Console) Allow(pid kernel.ProcessID, num uint32, slice kernel.AppSlice) kernel.Status {
	h := c.proc(pid)
	switch num {
	case allowTx:
		h.tx = slice
	case allowRx:
		h.rx = slice
	default:
		return kernel.StatusInvalid
	}
	return kernel.StatusSuccess
}

// Subscribe implements kernel.Driver.
func (c *Console) Subscribe(pid kernel.ProcessID, num uint32, cb kernel.Callback) kernel.Status {
	h := c.proc(pid)
	switch num {
	case subTxDone:
		h.txDone = cb
	case subRxDone:
		h.rxDone = cb
	default:
		return kernel.StatusInvalid
	}
	return kernel.StatusSuccess
}

func (c *Console) transmit(pid kernel.ProcessID, length uint32) kernel.Status {
	if c.txActive {
		if c.txOwner == pid {
			return kernel.StatusAlready
		}
		return kernel.StatusBusy
	}

	h := c.proc(pid)
	buf := h.tx.Bytes()
	if buf == nil || length == 0 {
		return kernel.StatusInvalid
	}
	if int(length) > len(buf) {
		return kernel.StatusSize
	}

	st := kernel.StatusSuccess
	err := c.grant.Enter(pid, func(region []byte) error {
		if region[0]&flagTxPending != 0 {
			st = kernel.StatusAlready
			return nil
		}
		if err := c.uart.Transmit(buf[:length]); err != nil {
			st = kernel.StatusFromHIL(err)
			return nil
		}
		region[0] |= flagTxPending
		binary.LittleEndian.PutUint32(region[4:8], length)
		c.txOwner = pid
		c.txActive = true
		return nil
	})
	if err != nil {
		return grantStatus(err)
	}
	return st
}

func (c *Console) receive(pid kernel.ProcessID, length uint32) kernel.Status {
	if c.rxActive {
		if c.rxOwner == pid {
			return kernel.StatusAlready
		}
		return kernel.StatusBusy
	}

	h := c.proc(pid)
	buf := h.rx.Bytes()
	if buf == nil || length == 0 {
		return kernel.StatusInvalid
	}
	if int(length) > len(buf) {
		return kernel.StatusSize
	}

	st := kernel.StatusSuccess
	err := c.grant.Enter(pid, func(region []byte) error {
		if region[0]&flagRxPending != 0 {
			st = kernel.StatusAlready
			return nil
		}
		if err := c.uart.Receive(buf[:length]); err != nil {
			st = kernel.StatusFromHIL(err)
			return nil
		}
		region[0] |= flagRxPending
		binary.LittleEndian.PutUint32(region[8:12], length)
		c.rxOwner = pid
		c.rxActive = true
		return nil
	})
	if err != nil {
		return grantStatus(err)
	}
	return st
}

func (c *Console) abortReceive(pid kernel.ProcessID) kernel.Status {
	if !c.rxActive || c.rxOwner != pid {
		return kernel.StatusInvalid
	}
	c.uart.AbortReceive()
	return kernel.StatusSuccess
}

// TransmitComplete implements hil.UARTClient. Runs from the chip's
// bottom-half service path.
func (c *Console) TransmitComplete(buf []byte, err error) {
	if !c.txActive {
		return
	}
	pid := c.txOwner
	c.txActive = false

	var n uint32
	_ = c.grant.Enter(pid, func(region []byte) error {
		region[0] &^= flagTxPending
		n = binary.LittleEndian.Uint32(region[4:8])
		return nil
	})
	if h, ok := c.procs[pid]; ok {
		h.txDone.Schedule(uint32(kernel.StatusFromHIL(err)), n, 0)
	}
}

// ReceiveComplete implements hil.UARTClient.
func (c *Console) ReceiveComplete(buf []byte, n int, err error) {
	if !c.rxActive {
		return
	}
	pid := c.rxOwner
	c.rxActive = false

	_ = c.grant.Enter(pid, func(region []byte) error {
		region[0] &^= flagRxPending
		return nil
	})
	if h, ok := c.procs[pid]; ok {
		h.rxDone.Schedule(uint32(kernel.StatusFromHIL(err)), uint32(n), 0)
	}
}

func grantStatus(err error) kernel.Status {
	switch err {
	case kernel.ErrNoMem:
		return kernel.StatusNoMem
	case kernel.ErrGrantBusy:
		return kernel.StatusBusy
	case kernel.ErrNoProcess:
		return kernel.StatusFail
	default:
		return kernel.StatusFail
	}
}
