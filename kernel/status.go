package kernel

import (
	"errors"

	"tern/hil"
)

// Status is the closed set of result codes the syscall ABI returns to
// processes. The numeric values are ABI and never change.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusFail
	StatusBusy
	StatusAlready
	StatusOff
	StatusInvalid
	StatusSize
	StatusCancel
	StatusNoMem
	StatusNoSupport
	StatusNoDevice
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFail:
		return "fail"
	case StatusBusy:
		return "busy"
	case StatusAlready:
		return "already in use"
	case StatusOff:
		return "hardware off"
	case StatusInvalid:
		return "invalid argument"
	case StatusSize:
		return "bad size"
	case StatusCancel:
		return "cancelled"
	case StatusNoMem:
		return "out of memory"
	case StatusNoSupport:
		return "unsupported"
	case StatusNoDevice:
		return "no such driver"
	default:
		return "unknown"
	}
}

// StatusFromHIL maps a hardware-layer error onto its ABI status so every
// capsule reports the same code for the same failure class.
func StatusFromHIL(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, hil.ErrInvalid):
		return StatusInvalid
	case errors.Is(err, hil.ErrBusy):
		return StatusBusy
	case errors.Is(err, hil.ErrOff):
		return StatusOff
	case errors.Is(err, hil.ErrCancelled):
		return StatusCancel
	case errors.Is(err, hil.ErrUnsupported), errors.Is(err, hil.ErrNotImplemented):
		return StatusNoSupport
	default:
		return StatusFail
	}
}
