// Package adc exposes an analog-to-digital converter to processes as
// driver 0x5.
//
// Command 1 starts a single conversion; the result arrives on subscribe
// slot 0 with r0 = channel and r1 = the left-aligned sample word. Command
// 2 returns the converter's significant bit count, command 3 the reference
// voltage in millivolts (StatusFail with value 0 when the board does not
// know its reference).
package adc

import (
	"tern/hil"
	"tern/kernel"
)

const (
	cmdCheck      = 0
	cmdSample     = 1
	cmdResolution = 2
	cmdVRef       = 3
)

const subSampleReady = 0

// ADC is the sampling capsule. One conversion may be outstanding at a
// time; a second sampler sees StatusBusy until the first completes.
type ADC struct {
	dev hil.ADC

	ready map[kernel.ProcessID]kernel.Callback

	owner  kernel.ProcessID
	active bool
}

// New wires an ADC capsule to a converter and registers for completions.
func New(dev hil.ADC) *ADC {
	a := &ADC{dev: dev, ready: make(map[kernel.ProcessID]kernel.Callback)}
	dev.SetClient(a)
	return a
}

// Command implements kernel.Driver.
func (a *ADC) Command(pid kernel.ProcessID, cmd, a0, a1 uint32) (kernel.Status, uint32) {
	switch cmd {
	case cmdCheck:
		return kernel.StatusSuccess, 0
	case cmdSample:
		if a.active {
			return kernel.StatusBusy, 0
		}
		if a0 > 0xff {
			return kernel.StatusInvalid, 0
		}
		if err := a.dev.Sample(uint8(a0)); err != nil {
			return kernel.StatusFromHIL(err), 0
		}
		a.owner = pid
		a.active = true
		return kernel.StatusSuccess, 0
	case cmdResolution:
		return kernel.StatusSuccess, uint32(a.dev.ResolutionBits())
	case cmdVRef:
		mv, ok := a.dev.VoltageReferenceMV()
		if !ok {
			return kernel.StatusFail, 0
		}
		return kernel.StatusSuccess, mv
	default:
		return kernel.StatusNoSupport, 0
	}
}

// Allow implements kernel.Driver. The ADC driver takes no buffers.
func (a *ADC) Allow(kernel.ProcessID, uint32, kernel.AppSlice) kernel.Status {
	return kernel.StatusNoSupport
}

// Subscribe implements kernel.Driver.
func (a *ADC) Subscribe(pid kernel.ProcessID, num uint32, cb kernel.Callback) kernel.Status {
	if num != subSampleReady {
		return kernel.StatusInvalid
	}
	a.ready[pid] = cb
	return kernel.StatusSuccess
}

// SampleReady implements hil.ADCClient. The sample arrives left-aligned
// from the hardware layer and is passed through untouched.
func (a *ADC) SampleReady(channel uint8, sample uint16) {
	if !a.active {
		return
	}
	pid := a.owner
	a.active = false
	if cb, ok := a.ready[pid]; ok {
		cb.Schedule(uint32(channel), uint32(sample), 0)
	}
}
