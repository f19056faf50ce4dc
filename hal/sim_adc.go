package hal

import (
	"sync"

	"tern/hil"
)

// SimADC is a software converter with a configurable native width. Raw
// codes come from a per-channel source function (a deterministic ramp by
// default) and are left-aligned into the sample word exactly as the hil
// contract requires, so boards of any native width look identical to
// callers.
type SimADC struct {
	chip *SimChip

	mu       sync.Mutex
	client   hil.ADCClient
	bits     int
	vrefMV   uint32
	channels uint8
	source   func(channel uint8) uint16
	ramp     uint16
	busy     bool
	powered  bool
}

// NewSimADC creates a powered converter with the given native resolution
// (1..16 bits) and channel count. Reference voltage starts unknown.
func NewSimADC(chip *SimChip, bits int, channels uint8) *SimADC {
	if bits < 1 {
		bits = 1
	}
	if bits > 16 {
		bits = 16
	}
	a := &SimADC{chip: chip, bits: bits, channels: channels, powered: true}
	a.source = a.nextRamp
	return a
}

// SetVoltageReferenceMV declares the board's reference. Zero keeps it
// unknown.
func (a *SimADC) SetVoltageReferenceMV(mv uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vrefMV = mv
}

// SetSource replaces the raw code generator. The source returns native
// right-justified codes; alignment happens here.
func (a *SimADC) SetSource(fn func(channel uint8) uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if fn != nil {
		a.source = fn
	}
}

// SetPowered models the converter's power state.
func (a *SimADC) SetPowered(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.powered = v
}

func (a *SimADC) nextRamp(channel uint8) uint16 {
	a.ramp += 7
	mask := uint16(1)<<a.bits - 1
	return (a.ramp + uint16(channel)) & mask
}

// SetClient implements hil.ADC.
func (a *SimADC) SetClient(c hil.ADCClient) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = c
}

// Sample implements hil.ADC. Conversion completes on the next interrupt
// service pass.
func (a *SimADC) Sample(channel uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.powered {
		return hil.ErrOff
	}
	if channel >= a.channels {
		return hil.ErrInvalid
	}
	if a.busy {
		return hil.ErrBusy
	}
	a.busy = true

	a.chip.Raise(func() {
		a.mu.Lock()
		raw := a.source(channel) & (uint16(1)<<a.bits - 1)
		sample := raw << (16 - a.bits)
		client := a.client
		a.busy = false
		a.mu.Unlock()
		if client != nil {
			client.SampleReady(channel, sample)
		}
	})
	return nil
}

// ResolutionBits implements hil.ADC.
func (a *SimADC) ResolutionBits() int { return a.bits }

// VoltageReferenceMV implements hil.ADC.
func (a *SimADC) VoltageReferenceMV() (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.vrefMV == 0 {
		return 0, false
	}
	return a.vrefMV, true
}
