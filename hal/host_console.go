//go:build !tinygo

package hal

import (
	"io"
	"sync"

	"tern/hil"
)

// ConsoleUART is the host serial port: transmitted bytes go to a sink
// (stdout, or the windowed terminal), received bytes come from whatever
// the host feeds in (stdin, or window keystrokes).
type ConsoleUART struct {
	chip *SimChip

	mu         sync.Mutex
	client     hil.UARTClient
	params     hil.UARTParams
	configured bool

	sink  io.Writer
	flush func()

	txBuf     []byte
	txAborted bool

	rxBuf []byte
	rxN   int
}

// NewConsoleUART creates a console port writing to sink. flush, if
// non-nil, runs after each completed transmit.
func NewConsoleUART(chip *SimChip, sink io.Writer, flush func()) *ConsoleUART {
	return &ConsoleUART{chip: chip, sink: sink, flush: flush}
}

// SetClient implements hil.UART.
func (u *ConsoleUART) SetClient(c hil.UARTClient) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.client = c
}

// Configure implements hil.UART. The host console accepts any frame a
// real 8-bit-max controller would.
func (u *ConsoleUART) Configure(p hil.UARTParams) error {
	if err := validateParams(p); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.params = p
	u.configured = true
	return nil
}

// Transmit implements hil.UART.
func (u *ConsoleUART) Transmit(buf []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.configured {
		return hil.ErrOff
	}
	if len(buf) == 0 {
		return hil.ErrInvalid
	}
	if u.txBuf != nil {
		return hil.ErrBusy
	}
	u.txBuf = buf
	u.txAborted = false
	u.chip.Raise(u.completeTx)
	return nil
}

func (u *ConsoleUART) completeTx() {
	u.mu.Lock()
	buf := u.txBuf
	if buf == nil {
		u.mu.Unlock()
		return
	}
	u.txBuf = nil
	aborted := u.txAborted
	client := u.client
	sink := u.sink
	flush := u.flush
	u.mu.Unlock()

	var err error
	if aborted {
		err = hil.ErrCancelled
	} else if sink != nil {
		_, err = sink.Write(buf)
		if flush != nil {
			flush()
		}
	}
	if client != nil {
		client.TransmitComplete(buf, err)
	}
}

// Receive implements hil.UART.
func (u *ConsoleUART) Receive(buf []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.configured {
		return hil.ErrOff
	}
	if len(buf) == 0 {
		return hil.ErrInvalid
	}
	if u.rxBuf != nil {
		return hil.ErrBusy
	}
	u.rxBuf = buf
	u.rxN = 0
	return nil
}

// PushRx feeds host input into the pending receive. Bytes arriving with
// no receive pending are dropped, as they would be on a wire.
func (u *ConsoleUART) PushRx(data []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxBuf == nil {
		return
	}
	u.rxN += copy(u.rxBuf[u.rxN:], data)
	if u.rxN == len(u.rxBuf) {
		u.finishRxLocked(nil)
	}
}

// AbortTransmit implements hil.UART.
func (u *ConsoleUART) AbortTransmit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.txBuf != nil {
		u.txAborted = true
	}
}

// AbortReceive implements hil.UART.
func (u *ConsoleUART) AbortReceive() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxBuf == nil {
		return
	}
	u.finishRxLocked(hil.ErrCancelled)
}

func (u *ConsoleUART) finishRxLocked(err error) {
	buf := u.rxBuf
	n := u.rxN
	u.rxBuf = nil
	u.rxN = 0
	client := u.client
	u.chip.Raise(func() {
		if client != nil {
			client.ReceiveComplete(buf, n, err)
		}
	})
}
