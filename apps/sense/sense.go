// Package sense reads one converter channel once a second and prints
// each sample on the console, scaled to millivolts when the board knows
// its reference.
package sense

import (
	"fmt"

	"tern/kernel"
)

const (
	adcSample     = 1
	adcResolution = 2
	adcVRef       = 3
	subSample     = 0

	alarmOneshot = 1
	subAlarm     = 0

	consoleTransmit = 1
	allowTx         = 0
	subTxDone       = 0
)

const periodTicks = 1000

const (
	txOff = 0
	txCap = 96
)

type phase uint8

const (
	phaseInit phase = iota
	phaseSample
	phaseAwaitSample
	phasePrint
	phaseAwaitPrint
	phaseSleep
	phaseAwaitAlarm
)

// App implements kernel.App.
type App struct {
	channel uint8
	phase   phase

	bits      uint32
	vrefMV    uint32
	vrefKnown bool

	sampleDone bool
	sample     uint32
	alarmFired bool
	txDone     bool
}

// New returns a sampler for the given converter channel.
func New(channel uint8) *App {
	return &App{channel: channel}
}

func (a *App) Step(ctx *kernel.Context) {
	switch a.phase {
	case phaseInit:
		ctx.Subscribe(kernel.DriverADC, subSample, func(r0, r1, r2 uint32) {
			a.sampleDone = true
			a.sample = r1
		})
		ctx.Subscribe(kernel.DriverAlarm, subAlarm, func(r0, r1, r2 uint32) {
			a.alarmFired = true
		})
		ctx.Subscribe(kernel.DriverConsole, subTxDone, func(r0, r1, r2 uint32) {
			a.txDone = true
		})
		_, a.bits = ctx.Command(kernel.DriverADC, adcResolution, 0, 0)
		st, mv := ctx.Command(kernel.DriverADC, adcVRef, 0, 0)
		if st == kernel.StatusSuccess {
			a.vrefMV = mv
			a.vrefKnown = true
		}
		a.phase = phaseSample

	case phaseSample:
		st, _ := ctx.Command(kernel.DriverADC, adcSample, uint32(a.channel), 0)
		if st == kernel.StatusSuccess {
			a.phase = phaseAwaitSample
			ctx.YieldWait()
		}
		// Converter busy: plain yield and retry.

	case phaseAwaitSample:
		if !a.sampleDone {
			ctx.YieldWait()
			return
		}
		a.sampleDone = false
		a.phase = phasePrint

	case phasePrint:
		line := a.format()
		n := copy(ctx.Memory()[txOff:txOff+txCap], line)
		ctx.Allow(kernel.DriverConsole, allowTx, txOff, uint32(n))
		st, _ := ctx.Command(kernel.DriverConsole, consoleTransmit, uint32(n), 0)
		if st == kernel.StatusSuccess {
			a.phase = phaseAwaitPrint
			ctx.YieldWait()
		}

	case phaseAwaitPrint:
		if !a.txDone {
			ctx.YieldWait()
			return
		}
		a.txDone = false
		a.phase = phaseSleep

	case phaseSleep:
		st, _ := ctx.Command(kernel.DriverAlarm, alarmOneshot, periodTicks, 0)
		if st == kernel.StatusSuccess {
			a.phase = phaseAwaitAlarm
			ctx.YieldWait()
		}

	case phaseAwaitAlarm:
		if !a.alarmFired {
			ctx.YieldWait()
			return
		}
		a.alarmFired = false
		a.phase = phaseSample
	}
}

// format renders the latest left-aligned sample. With a known reference
// the full-scale word maps onto it linearly.
func (a *App) format() string {
	if a.vrefKnown {
		mv := uint64(a.sample) * uint64(a.vrefMV) / 0xffff
		return fmt.Sprintf("adc[%d] = 0x%04x (%d mV, %d-bit)\r\n", a.channel, a.sample, mv, a.bits)
	}
	return fmt.Sprintf("adc[%d] = 0x%04x (%d-bit, vref unknown)\r\n", a.channel, a.sample, a.bits)
}
