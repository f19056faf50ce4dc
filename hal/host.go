//go:build !tinygo

package hal

import "os"

// New returns the host's simulated device set with the serial console on
// stdio: transmit goes to stdout, stdin bytes feed the receiver. The
// timebase self-drives at 1ms.
func New() Devices {
	chip := NewSimChip()
	t := newHostTime()
	t.Start()

	console := NewConsoleUART(chip, os.Stdout, nil)
	go stdinReader(console)

	return hostDevices(chip, console, t)
}

// hostDevices assembles the simulated peripherals every host mode
// shares: a 12-bit 8-channel converter referenced at 3.3V, a 4-channel
// comparator bank, and a software MPU.
func hostDevices(chip *SimChip, console *ConsoleUART, t *hostTime) Devices {
	adc := NewSimADC(chip, 12, 8)
	adc.SetVoltageReferenceMV(3300)
	return Devices{
		Chip:       chip,
		UART:       console,
		ADC:        adc,
		Comparator: NewSimComparator(chip, 4),
		MPU:        NewSoftMPU(),
		Time:       t,
	}
}

func stdinReader(console *ConsoleUART) {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			console.PushRx(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
