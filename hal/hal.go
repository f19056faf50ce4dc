// Package hal provides the hardware the kernel runs against: simulated
// peripherals for the desktop host (with an optional windowed serial
// console) and TinyGo-tagged glue for real chips. Everything here
// implements the contracts in package hil; boards pick the pieces and do
// the wiring.
package hal

import (
	"tern/hil"
	"tern/kernel"
)

// Devices is the set a board hands to bring-up: one chip for the kernel's
// idle path plus the peripherals the capsules consume. Nil entries mean
// the board does not populate that peripheral.
type Devices struct {
	Chip       kernel.Chip
	UART       hil.UART
	ADC        hil.ADC
	Comparator hil.AnalogComparator
	MPU        hil.MPU
	Time       hil.Time
}

// validateParams applies the frame rules shared by the 8-bit-max ports
// here: impossible parameters are hil.ErrInvalid, 9-bit frames are legal
// but beyond this hardware, so hil.ErrUnsupported.
func validateParams(p hil.UARTParams) error {
	if p.BaudRate == 0 {
		return hil.ErrInvalid
	}
	switch p.StopBits {
	case hil.StopBitsOne, hil.StopBitsTwo:
	default:
		return hil.ErrInvalid
	}
	switch p.Parity {
	case hil.ParityNone, hil.ParityOdd, hil.ParityEven:
	default:
		return hil.ErrInvalid
	}
	switch p.Width {
	case hil.WordLength6, hil.WordLength7, hil.WordLength8:
	case hil.WordLength9:
		return hil.ErrUnsupported
	default:
		return hil.ErrInvalid
	}
	return nil
}

func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func rgb888From565(p uint16) (r, g, b uint8) {
	r = uint8(p>>11) << 3
	g = uint8(p>>5&0x3f) << 2
	b = uint8(p&0x1f) << 3
	return r, g, b
}
