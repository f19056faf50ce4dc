package hal

import (
	"bytes"
	"errors"
	"testing"

	"tern/hil"
)

type uartClient struct {
	txBuf []byte
	txErr error
	txN   int

	rxBuf []byte
	rxN   int
	rxErr error
	rxHit int
}

func (c *uartClient) TransmitComplete(buf []byte, err error) {
	c.txBuf = buf
	c.txErr = err
	c.txN++
}

func (c *uartClient) ReceiveComplete(buf []byte, n int, err error) {
	c.rxBuf = buf
	c.rxN = n
	c.rxErr = err
	c.rxHit++
}

func params8N1(baud uint32) hil.UARTParams {
	return hil.UARTParams{
		BaudRate: baud,
		Width:    hil.WordLength8,
		Parity:   hil.ParityNone,
		StopBits: hil.StopBitsOne,
	}
}

func TestSimUARTConfigure(t *testing.T) {
	u := NewSimUART(NewSimChip())

	if err := u.Configure(params8N1(0)); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("zero baud: err=%v, want %v", err, hil.ErrInvalid)
	}

	p := params8N1(115200)
	p.Width = hil.WordLength9
	if err := u.Configure(p); !errors.Is(err, hil.ErrUnsupported) {
		t.Fatalf("9-bit frames: err=%v, want %v", err, hil.ErrUnsupported)
	}

	p = params8N1(115200)
	p.StopBits = 7
	if err := u.Configure(p); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("bad stop bits: err=%v, want %v", err, hil.ErrInvalid)
	}

	u.SetMultiplexed(true)
	if err := u.Configure(params8N1(115200)); !errors.Is(err, hil.ErrBusy) {
		t.Fatalf("muxed away: err=%v, want %v", err, hil.ErrBusy)
	}
	u.SetMultiplexed(false)

	if err := u.Configure(params8N1(115200)); err != nil {
		t.Fatalf("valid configure: %v", err)
	}
	if got := u.Params().BaudRate; got != 115200 {
		t.Fatalf("baud=%d, want 115200", got)
	}
}

func TestSimUARTTransmit(t *testing.T) {
	chip := NewSimChip()
	u := NewSimUART(chip)
	c := &uartClient{}
	u.SetClient(c)

	if err := u.Transmit([]byte("x")); !errors.Is(err, hil.ErrOff) {
		t.Fatalf("unconfigured transmit: err=%v, want %v", err, hil.ErrOff)
	}
	if err := u.Configure(params8N1(9600)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := u.Transmit(nil); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("empty transmit: err=%v, want %v", err, hil.ErrInvalid)
	}

	msg := []byte("hello")
	if err := u.Transmit(msg); err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if err := u.Transmit([]byte("again")); !errors.Is(err, hil.ErrBusy) {
		t.Fatalf("transmit while busy: err=%v, want %v", err, hil.ErrBusy)
	}

	chip.ServiceInterrupts()
	if c.txN != 1 || c.txErr != nil {
		t.Fatalf("completion: n=%d err=%v", c.txN, c.txErr)
	}
	sent := u.Sent()
	if len(sent) != 1 || !bytes.Equal(sent[0].Bytes, msg) {
		t.Fatalf("sent=%v, want %q", sent, msg)
	}
	if sent[0].Params.BaudRate != 9600 {
		t.Fatalf("record baud=%d, want 9600", sent[0].Params.BaudRate)
	}
}

func TestSimUARTAbortTransmit(t *testing.T) {
	chip := NewSimChip()
	u := NewSimUART(chip)
	c := &uartClient{}
	u.SetClient(c)
	u.Configure(params8N1(9600))

	u.Transmit([]byte("doomed"))
	u.AbortTransmit()
	chip.ServiceInterrupts()

	if !errors.Is(c.txErr, hil.ErrCancelled) {
		t.Fatalf("aborted transmit err=%v, want %v", c.txErr, hil.ErrCancelled)
	}
	if len(u.Sent()) != 0 {
		t.Fatal("aborted transmit was recorded as sent")
	}
}

func TestSimUARTReceive(t *testing.T) {
	chip := NewSimChip()
	u := NewSimUART(chip)
	c := &uartClient{}
	u.SetClient(c)
	u.Configure(params8N1(9600))

	buf := make([]byte, 4)
	if err := u.Receive(buf); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := u.Receive(make([]byte, 1)); !errors.Is(err, hil.ErrBusy) {
		t.Fatalf("second receive: err=%v, want %v", err, hil.ErrBusy)
	}

	u.InjectRx([]byte("ab"))
	u.InjectRx([]byte("cd"))
	chip.ServiceInterrupts()

	if c.rxHit != 1 || c.rxN != 4 || c.rxErr != nil {
		t.Fatalf("completion: hit=%d n=%d err=%v", c.rxHit, c.rxN, c.rxErr)
	}
	if string(buf) != "abcd" {
		t.Fatalf("buf=%q, want %q", buf, "abcd")
	}
}

func TestSimUARTAbortReceive(t *testing.T) {
	chip := NewSimChip()
	u := NewSimUART(chip)
	c := &uartClient{}
	u.SetClient(c)
	u.Configure(params8N1(9600))

	u.Receive(make([]byte, 8))
	u.InjectRx([]byte("abc"))
	u.AbortReceive()
	chip.ServiceInterrupts()

	if c.rxHit != 1 || c.rxN != 3 || !errors.Is(c.rxErr, hil.ErrCancelled) {
		t.Fatalf("aborted receive: hit=%d n=%d err=%v", c.rxHit, c.rxN, c.rxErr)
	}
}

func TestSimUARTLoopback(t *testing.T) {
	chip := NewSimChip()
	u := NewSimUART(chip)
	c := &uartClient{}
	u.SetClient(c)
	u.Configure(params8N1(9600))
	u.SetLoopback(true)

	buf := make([]byte, 4)
	u.Receive(buf)
	u.Transmit([]byte("ping"))
	chip.ServiceInterrupts() // transmit completes, feeds the receiver
	chip.ServiceInterrupts() // receive completion pass

	if string(buf) != "ping" {
		t.Fatalf("looped back %q, want %q", buf, "ping")
	}
	if c.rxHit != 1 {
		t.Fatalf("rx completions=%d, want 1", c.rxHit)
	}
}

type adcClient struct {
	channel uint8
	sample  uint16
	hits    int
}

func (c *adcClient) SampleReady(channel uint8, sample uint16) {
	c.channel = channel
	c.sample = sample
	c.hits++
}

func TestSimADCLeftAlignment(t *testing.T) {
	for _, bits := range []int{8, 10, 12, 16} {
		chip := NewSimChip()
		a := NewSimADC(chip, bits, 2)
		c := &adcClient{}
		a.SetClient(c)

		raw := uint16(1)<<bits - 1 // full scale
		a.SetSource(func(uint8) uint16 { return raw })

		if err := a.Sample(1); err != nil {
			t.Fatalf("bits=%d Sample: %v", bits, err)
		}
		chip.ServiceInterrupts()

		want := raw << (16 - bits)
		if c.sample != want {
			t.Fatalf("bits=%d sample=%#04x, want %#04x", bits, c.sample, want)
		}
		if c.channel != 1 {
			t.Fatalf("bits=%d channel=%d, want 1", bits, c.channel)
		}
	}
}

func TestSimADCErrors(t *testing.T) {
	chip := NewSimChip()
	a := NewSimADC(chip, 12, 2)
	a.SetClient(&adcClient{})

	if err := a.Sample(5); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("bad channel: err=%v, want %v", err, hil.ErrInvalid)
	}
	if err := a.Sample(0); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if err := a.Sample(0); !errors.Is(err, hil.ErrBusy) {
		t.Fatalf("busy sample: err=%v, want %v", err, hil.ErrBusy)
	}
	chip.ServiceInterrupts()
	if err := a.Sample(0); err != nil {
		t.Fatalf("sample after completion: %v", err)
	}
	chip.ServiceInterrupts()

	a.SetPowered(false)
	if err := a.Sample(0); !errors.Is(err, hil.ErrOff) {
		t.Fatalf("powered off: err=%v, want %v", err, hil.ErrOff)
	}
}

func TestSimADCVoltageReference(t *testing.T) {
	a := NewSimADC(NewSimChip(), 12, 1)
	if mv, ok := a.VoltageReferenceMV(); ok || mv != 0 {
		t.Fatalf("fresh converter vref=(%d,%v), want unknown", mv, ok)
	}
	a.SetVoltageReferenceMV(3300)
	if mv, ok := a.VoltageReferenceMV(); !ok || mv != 3300 {
		t.Fatalf("vref=(%d,%v), want (3300,true)", mv, ok)
	}
}

type compClient struct {
	fired []uint8
}

func (c *compClient) Fired(channel uint8) { c.fired = append(c.fired, channel) }

func TestSimComparator(t *testing.T) {
	chip := NewSimChip()
	s := NewSimComparator(chip, 4)
	c := &compClient{}
	s.SetClient(c)

	if _, err := s.Comparison(4); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("bad channel: err=%v, want %v", err, hil.ErrInvalid)
	}

	// Rising edge on a disarmed channel stays silent.
	s.SetLevel(0, true)
	chip.ServiceInterrupts()
	if len(c.fired) != 0 {
		t.Fatalf("disarmed channel fired: %v", c.fired)
	}

	if err := s.EnableInterrupts(1); err != nil {
		t.Fatalf("EnableInterrupts: %v", err)
	}
	s.SetLevel(1, true)
	s.SetLevel(1, true) // level held high, no second edge
	chip.ServiceInterrupts()
	if len(c.fired) != 1 || c.fired[0] != 1 {
		t.Fatalf("fired=%v, want [1]", c.fired)
	}

	s.DisableInterrupts(1)
	s.SetLevel(1, false)
	s.SetLevel(1, true)
	chip.ServiceInterrupts()
	if len(c.fired) != 1 {
		t.Fatalf("disarmed channel fired again: %v", c.fired)
	}

	// Window pair (2,3): inside while 2 is high and 3 is low.
	s.SetLevel(2, true)
	if in, err := s.WindowComparison(2); err != nil || !in {
		t.Fatalf("window=(%v,%v), want inside", in, err)
	}
	s.SetLevel(3, true)
	if in, _ := s.WindowComparison(2); in {
		t.Fatal("window still inside above the upper bound")
	}
	if _, err := s.WindowComparison(3); !errors.Is(err, hil.ErrInvalid) {
		t.Fatalf("window off the end: err=%v, want %v", err, hil.ErrInvalid)
	}
}

func TestSimChipBatching(t *testing.T) {
	chip := NewSimChip()
	var order []int
	chip.Raise(func() {
		order = append(order, 1)
		chip.Raise(func() { order = append(order, 3) })
	})
	chip.Raise(func() { order = append(order, 2) })

	if !chip.HasPendingInterrupts() {
		t.Fatal("no pending interrupts after raise")
	}
	chip.ServiceInterrupts()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("first pass ran %v, want [1 2]", order)
	}
	chip.ServiceInterrupts()
	if len(order) != 3 || order[2] != 3 {
		t.Fatalf("second pass ran %v, want [1 2 3]", order)
	}
	if chip.HasPendingInterrupts() {
		t.Fatal("pending interrupts after draining")
	}
}

func TestSoftMPUWriteChecks(t *testing.T) {
	m := NewSoftMPU()
	if !m.AllowsWrite(0x1000, 4) {
		t.Fatal("disabled MPU blocked a write")
	}

	m.ConfigureRegions([]hil.Region{
		{Start: 0x0, End: 0x100, Read: hil.Full, Write: hil.Full},
		{Start: 0x100, End: 0x200, Read: hil.PrivilegedOnly, Write: hil.PrivilegedOnly},
	})
	m.Enable()

	if !m.AllowsWrite(0x10, 8) {
		t.Fatal("write inside the app region blocked")
	}
	if m.AllowsWrite(0x180, 8) {
		t.Fatal("write into the privileged region allowed")
	}
	if m.AllowsWrite(0x300, 1) {
		t.Fatal("write outside every region allowed")
	}
}
