// Package hil defines the hardware interface contracts that chip code
// implements and capsules consume.
//
// Everything here is chip-agnostic. Pin muxing, clock gating and other
// board bring-up happens before a device is handed to a consumer; the
// contracts below cover configuration and data movement only.
package hil

import "errors"

var (
	// ErrInvalid means the caller asked for something no hardware could do
	// (zero baud rate, out-of-range channel).
	ErrInvalid = errors.New("invalid parameters")

	// ErrUnsupported means the request is legal but this chip cannot do it.
	ErrUnsupported = errors.New("unsupported on this hardware")

	// ErrBusy means the controller is currently claimed by another mode or
	// transfer. Callers may retry once the resource is released.
	ErrBusy = errors.New("hardware busy")

	// ErrOff means the peripheral is powered down or not brought up.
	ErrOff = errors.New("hardware off")

	// ErrCancelled completes a transfer that was aborted by the caller.
	ErrCancelled = errors.New("transfer cancelled")

	ErrNotImplemented = errors.New("not implemented")
)
