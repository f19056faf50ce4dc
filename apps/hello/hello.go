// Package hello is the first process on every board: it prints a banner
// through the console driver and then echoes whatever comes back in,
// one byte at a time. Upcalls only record results; the next turn of
// Step acts on them.
package hello

import "tern/kernel"

const (
	cmdTransmit = 1
	cmdReceive  = 2

	allowTx = 0
	allowRx = 1

	subTxDone = 0
	subRxDone = 1
)

// Process memory layout: transmit staging first, one receive byte after.
const (
	txOff = 0
	txCap = 96
	rxOff = txCap
)

type phase uint8

const (
	phaseBanner phase = iota
	phaseAwaitBanner
	phaseListen
	phaseAwaitRx
	phaseEcho
	phaseAwaitEcho
)

const banner = "tern console ready. keys echo below.\r\n"

// App implements kernel.App.
type App struct {
	phase  phase
	subbed bool

	txDone   bool
	txStatus uint32
	rxDone   bool
	rxStatus uint32

	echo byte
}

// New returns the greeter/echo process body.
func New() *App { return &App{} }

func (a *App) Step(ctx *kernel.Context) {
	if !a.subbed {
		ctx.Subscribe(kernel.DriverConsole, subTxDone, func(r0, r1, r2 uint32) {
			a.txDone = true
			a.txStatus = r0
		})
		ctx.Subscribe(kernel.DriverConsole, subRxDone, func(r0, r1, r2 uint32) {
			a.rxDone = true
			a.rxStatus = r0
		})
		ctx.Allow(kernel.DriverConsole, allowRx, rxOff, 1)
		a.subbed = true
	}

	switch a.phase {
	case phaseBanner:
		if a.send(ctx, banner) {
			a.phase = phaseAwaitBanner
			ctx.YieldWait()
		}
		// Transmitter busy: plain yield, try again next turn.

	case phaseAwaitBanner:
		if !a.txDone {
			ctx.YieldWait()
			return
		}
		a.txDone = false
		a.phase = phaseListen

	case phaseListen:
		st, _ := ctx.Command(kernel.DriverConsole, cmdReceive, 1, 0)
		if st == kernel.StatusSuccess {
			a.phase = phaseAwaitRx
			ctx.YieldWait()
		}

	case phaseAwaitRx:
		if !a.rxDone {
			ctx.YieldWait()
			return
		}
		a.rxDone = false
		if kernel.Status(a.rxStatus) != kernel.StatusSuccess {
			a.phase = phaseListen
			return
		}
		a.echo = ctx.Memory()[rxOff]
		a.phase = phaseEcho

	case phaseEcho:
		out := string(a.echo)
		if a.echo == '\r' {
			out = "\r\n"
		}
		if a.send(ctx, out) {
			a.phase = phaseAwaitEcho
			ctx.YieldWait()
		}

	case phaseAwaitEcho:
		if !a.txDone {
			ctx.YieldWait()
			return
		}
		a.txDone = false
		a.phase = phaseListen
	}
}

// send stages s in the transmit area, allows it, and starts the
// transmit. Reports whether the driver accepted it.
func (a *App) send(ctx *kernel.Context, s string) bool {
	n := copy(ctx.Memory()[txOff:txOff+txCap], s)
	ctx.Allow(kernel.DriverConsole, allowTx, txOff, uint32(n))
	st, _ := ctx.Command(kernel.DriverConsole, cmdTransmit, uint32(n), 0)
	return st == kernel.StatusSuccess
}
