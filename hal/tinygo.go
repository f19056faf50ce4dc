//go:build tinygo

package hal

import (
	"machine"
	"time"

	"tern/hil"
)

// New returns the device set for a Pico-class (RP2040) board.
//
// UART0 on GP0 (TX) / GP1 (RX); ADC inputs on GP26..GP28. Pin selection
// is board bring-up and happens here; the hil contracts see only
// configuration.
func New() Devices {
	chip := NewSimChip()
	t := newTinyGoTime()

	machine.InitADC()

	return Devices{
		Chip:       chip,
		UART:       newMachineUART(chip, machine.UART0, machine.GP0, machine.GP1),
		ADC:        newMachineADC(chip, []machine.Pin{machine.GP26, machine.GP27, machine.GP28}),
		Comparator: nil,
		MPU:        hil.NullMPU{},
		Time:       t,
	}
}

// machineUART adapts a machine UART to hil.UART. The controller does
// 8N1 frames only; anything else reports hil.ErrUnsupported.
type machineUART struct {
	chip *SimChip
	u    *machine.UART
	tx   machine.Pin
	rx   machine.Pin

	client     hil.UARTClient
	configured bool

	rxBuf []byte
	rxN   int
}

func newMachineUART(chip *SimChip, u *machine.UART, tx, rx machine.Pin) *machineUART {
	m := &machineUART{chip: chip, u: u, tx: tx, rx: rx}
	go m.pollRx()
	return m
}

func (m *machineUART) SetClient(c hil.UARTClient) { m.client = c }

func (m *machineUART) Configure(p hil.UARTParams) error {
	if p.BaudRate == 0 {
		return hil.ErrInvalid
	}
	if p.Width != hil.WordLength8 || p.Parity != hil.ParityNone || p.StopBits != hil.StopBitsOne {
		return hil.ErrUnsupported
	}
	m.u.Configure(machine.UARTConfig{BaudRate: p.BaudRate, TX: m.tx, RX: m.rx})
	m.configured = true
	return nil
}

func (m *machineUART) Transmit(buf []byte) error {
	if !m.configured {
		return hil.ErrOff
	}
	if len(buf) == 0 {
		return hil.ErrInvalid
	}
	_, err := m.u.Write(buf)
	m.chip.Raise(func() {
		if m.client != nil {
			m.client.TransmitComplete(buf, err)
		}
	})
	return nil
}

func (m *machineUART) Receive(buf []byte) error {
	if !m.configured {
		return hil.ErrOff
	}
	if len(buf) == 0 {
		return hil.ErrInvalid
	}
	if m.rxBuf != nil {
		return hil.ErrBusy
	}
	m.rxN = 0
	m.rxBuf = buf
	return nil
}

func (m *machineUART) AbortTransmit() {}

func (m *machineUART) AbortReceive() {
	buf := m.rxBuf
	if buf == nil {
		return
	}
	n := m.rxN
	m.rxBuf = nil
	m.chip.Raise(func() {
		if m.client != nil {
			m.client.ReceiveComplete(buf, n, hil.ErrCancelled)
		}
	})
}

func (m *machineUART) pollRx() {
	for {
		if m.rxBuf == nil || m.u.Buffered() == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		b, err := m.u.ReadByte()
		if err != nil {
			continue
		}
		m.rxBuf[m.rxN] = b
		m.rxN++
		if m.rxN == len(m.rxBuf) {
			buf := m.rxBuf
			n := m.rxN
			m.rxBuf = nil
			m.chip.Raise(func() {
				if m.client != nil {
					m.client.ReceiveComplete(buf, n, nil)
				}
			})
		}
	}
}

// machineADC adapts the on-chip converter. machine.ADC.Get returns a
// left-justified 16-bit word, which is exactly the hil alignment rule;
// the RP2040's native resolution is 12 bits.
type machineADC struct {
	chip   *SimChip
	inputs []machine.ADC
	client hil.ADCClient
	busy   bool
}

func newMachineADC(chip *SimChip, pins []machine.Pin) *machineADC {
	a := &machineADC{chip: chip}
	for _, pin := range pins {
		in := machine.ADC{Pin: pin}
		in.Configure(machine.ADCConfig{})
		a.inputs = append(a.inputs, in)
	}
	return a
}

func (a *machineADC) SetClient(c hil.ADCClient) { a.client = c }

func (a *machineADC) Sample(channel uint8) error {
	if int(channel) >= len(a.inputs) {
		return hil.ErrInvalid
	}
	if a.busy {
		return hil.ErrBusy
	}
	a.busy = true
	sample := a.inputs[channel].Get()
	a.chip.Raise(func() {
		a.busy = false
		if a.client != nil {
			a.client.SampleReady(channel, sample)
		}
	})
	return nil
}

func (a *machineADC) ResolutionBits() int { return 12 }

func (a *machineADC) VoltageReferenceMV() (uint32, bool) { return 3300, true }

// tinyGoTime drives the 1ms tick stream from a ticker goroutine.
type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 64)}
	go func() {
		tk := time.NewTicker(time.Millisecond)
		defer tk.Stop()
		for range tk.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }
