package hal

import (
	"sync"

	"tern/hil"
)

// TxRecord is one completed transmit as the simulated wire saw it: the
// bytes plus the line parameters in force at the time.
type TxRecord struct {
	Params hil.UARTParams
	Bytes  []byte
}

// SimUART is a software serial port. It supports 6 to 8 data bit frames
// (9-bit frames report hil.ErrUnsupported), can be marked as multiplexed
// away to model a claimed controller, and can loop transmitted bytes back
// into its own receiver.
type SimUART struct {
	chip *SimChip

	mu         sync.Mutex
	client     hil.UARTClient
	params     hil.UARTParams
	configured bool
	muxed      bool
	loopback   bool

	txBuf     []byte
	txAborted bool

	rxBuf []byte
	rxN   int

	sent []TxRecord
}

// NewSimUART creates an unconfigured simulated UART on the chip.
func NewSimUART(chip *SimChip) *SimUART {
	return &SimUART{chip: chip}
}

// SetMultiplexed models the controller being claimed by another mode.
func (u *SimUART) SetMultiplexed(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.muxed = v
}

// SetLoopback wires TX to RX.
func (u *SimUART) SetLoopback(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loopback = v
}

// Params returns the active line configuration.
func (u *SimUART) Params() hil.UARTParams {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.params
}

// Sent returns every completed transmit in order.
func (u *SimUART) Sent() []TxRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]TxRecord(nil), u.sent...)
}

// SetClient implements hil.UART.
func (u *SimUART) SetClient(c hil.UARTClient) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.client = c
}

// Configure implements hil.UART.
func (u *SimUART) Configure(p hil.UARTParams) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.muxed {
		return hil.ErrBusy
	}
	if err := validateParams(p); err != nil {
		return err
	}
	u.params = p
	u.configured = true
	return nil
}

// Transmit implements hil.UART. The transfer completes on the next
// interrupt service pass.
func (u *SimUART) Transmit(buf []byte) error {
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

func (u *SimUART) completeTx() {
	u.mu.Lock()
	buf := u.txBuf
	if buf == nil {
		u.mu.Unlock()
		return
	}
	u.txBuf = nil

	var err error
	if u.txAborted {
		err = hil.ErrCancelled
	} else {
		u.sent = append(u.sent, TxRecord{Params: u.params, Bytes: append([]byte(nil), buf...)})
	}
	client := u.client
	loop := u.loopback && err == nil
	u.mu.Unlock()

	if loop {
		u.InjectRx(buf)
	}
	if client != nil {
		client.TransmitComplete(buf, err)
	}
}

// Receive implements hil.UART. The transfer completes once the buffer
// fills or the caller aborts.
func (u *SimUART) Receive(buf []byte) error {
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

// InjectRx feeds bytes into the receiver, as arriving line data.
func (u *SimUART) InjectRx(data []byte) {
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
func (u *SimUART) AbortTransmit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.txBuf != nil {
		u.txAborted = true
	}
}

// AbortReceive implements hil.UART: completes the pending receive with
// whatever has arrived and hil.ErrCancelled.
func (u *SimUART) AbortReceive() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rxBuf == nil {
		return
	}
	u.finishRxLocked(hil.ErrCancelled)
}

func (u *SimUART) finishRxLocked(err error) {
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
