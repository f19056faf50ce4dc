// Package board does bring-up: it builds a kernel over a device set,
// registers the capsules under their driver numbers, installs the demo
// processes, and plumbs the timebase into the kernel and the timer
// capsule.
package board

import (
	"tern/apps/hello"
	"tern/apps/pingpong"
	"tern/apps/sense"
	adccap "tern/capsules/adc"
	"tern/capsules/alarm"
	"tern/capsules/comparator"
	"tern/capsules/console"
	"tern/capsules/ipc"
	"tern/hal"
	"tern/hil"
	"tern/kernel"
)

// interruptRaiser is the chip-side path for pushing deferred work onto
// the kernel thread. The simulated chips implement it.
type interruptRaiser interface {
	Raise(fn func())
}

// Board is one brought-up system.
type Board struct {
	K    *kernel.Kernel
	chip kernel.Chip
}

// New wires a full system over the given devices. Nil peripherals are
// skipped along with the processes that need them.
func New(d hal.Devices) (*Board, error) {
	k := kernel.New()
	k.SetMPU(d.MPU)

	al := alarm.New()
	if err := k.RegisterDriver(kernel.DriverAlarm, al); err != nil {
		return nil, err
	}

	if d.UART != nil {
		err := d.UART.Configure(hil.UARTParams{
			BaudRate: 115200,
			Width:    hil.WordLength8,
			Parity:   hil.ParityNone,
			StopBits: hil.StopBitsOne,
		})
		if err != nil {
			return nil, err
		}
		cons, err := console.New(k, d.UART)
		if err != nil {
			return nil, err
		}
		if err := k.RegisterDriver(kernel.DriverConsole, cons); err != nil {
			return nil, err
		}
	}
	if d.ADC != nil {
		if err := k.RegisterDriver(kernel.DriverADC, adccap.New(d.ADC)); err != nil {
			return nil, err
		}
	}
	if d.Comparator != nil {
		if err := k.RegisterDriver(kernel.DriverComparator, comparator.New(d.Comparator)); err != nil {
			return nil, err
		}
	}
	if err := k.RegisterDriver(kernel.DriverIPC, ipc.New(k)); err != nil {
		return nil, err
	}

	if d.UART != nil {
		if _, err := k.AddProcess("hello", hello.New(), 4096); err != nil {
			return nil, err
		}
		if d.ADC != nil {
			if _, err := k.AddProcess("sense", sense.New(0), 4096); err != nil {
				return nil, err
			}
		}
		ping := pingpong.NewPing()
		pong := pingpong.NewPong()
		pingID, err := k.AddProcess("ping", ping, 2048)
		if err != nil {
			return nil, err
		}
		pongID, err := k.AddProcess("pong", pong, 2048)
		if err != nil {
			return nil, err
		}
		ping.SetPeer(pongID)
		pong.SetPeer(pingID)
	}

	if d.Time != nil {
		if ch := d.Time.Ticks(); ch != nil {
			raiser, _ := d.Chip.(interruptRaiser)
			go func() {
				for range ch {
					k.Tick()
					now := k.Ticks()
					if raiser != nil {
						raiser.Raise(func() { al.Advance(now) })
					}
				}
			}()
		}
	}

	return &Board{K: k, chip: d.Chip}, nil
}

// Step runs one frame's worth of kernel work without sleeping. The
// frame-driven hosts call this once per tick.
func (b *Board) Step() error {
	b.K.RunPending(b.chip, 256)
	return nil
}

// Run runs the kernel loop forever. Standalone entrypoints call this.
func (b *Board) Run() {
	b.K.Loop(b.chip)
}

// NewStepper adapts New to the host runners, which want one step
// function per device set.
func NewStepper(d hal.Devices) func() error {
	b, err := New(d)
	if err != nil {
		return func() error { return err }
	}
	return b.Step
}
