// Package pingpong is a two-process demo of the IPC driver. Ping shares
// a four-byte message with Pong and notifies it once a period; Pong
// fetches the bytes and notifies back; Ping reports the completed round
// on the console.
package pingpong

import (
	"fmt"

	"tern/kernel"
)

const (
	ipcNotify = 1
	ipcFetch  = 2

	alarmOneshot = 1
	subAlarm     = 0

	consoleTransmit = 1
	allowTx         = 0
	subTxDone       = 0
)

const periodTicks = 2000

const message = "ping"

// Ping memory layout: shared message first, console staging after.
const (
	pingMsgOff = 0
	pingTxOff  = 16
	pingTxCap  = 64
)

type pingPhase uint8

const (
	pingInit pingPhase = iota
	pingSleep
	pingAwaitAlarm
	pingNotify
	pingAwaitReply
	pingPrint
	pingAwaitPrint
)

// Ping is the initiating side. Its peer must be set before the kernel
// first schedules it.
type Ping struct {
	peer  kernel.ProcessID
	phase pingPhase

	rounds     uint32
	alarmFired bool
	replied    bool
	txDone     bool
}

// NewPing returns the initiator body.
func NewPing() *Ping { return &Ping{} }

// SetPeer points the initiator at its partner's slot.
func (p *Ping) SetPeer(id kernel.ProcessID) { p.peer = id }

func (p *Ping) Step(ctx *kernel.Context) {
	switch p.phase {
	case pingInit:
		ctx.Subscribe(kernel.DriverIPC, uint32(p.peer), func(r0, r1, r2 uint32) {
			p.replied = true
		})
		ctx.Subscribe(kernel.DriverAlarm, subAlarm, func(r0, r1, r2 uint32) {
			p.alarmFired = true
		})
		ctx.Subscribe(kernel.DriverConsole, subTxDone, func(r0, r1, r2 uint32) {
			p.txDone = true
		})
		copy(ctx.Memory()[pingMsgOff:], message)
		ctx.Allow(kernel.DriverIPC, uint32(p.peer), pingMsgOff, uint32(len(message)))
		p.phase = pingSleep

	case pingSleep:
		st, _ := ctx.Command(kernel.DriverAlarm, alarmOneshot, periodTicks, 0)
		if st == kernel.StatusSuccess {
			p.phase = pingAwaitAlarm
			ctx.YieldWait()
		}

	case pingAwaitAlarm:
		if !p.alarmFired {
			ctx.YieldWait()
			return
		}
		p.alarmFired = false
		p.phase = pingNotify

	case pingNotify:
		st, _ := ctx.Command(kernel.DriverIPC, ipcNotify, uint32(p.peer), 0)
		if st != kernel.StatusSuccess {
			// Partner not listening yet. Sleep a period and retry.
			p.phase = pingSleep
			return
		}
		p.phase = pingAwaitReply
		ctx.YieldWait()

	case pingAwaitReply:
		if !p.replied {
			ctx.YieldWait()
			return
		}
		p.replied = false
		p.rounds++
		p.phase = pingPrint

	case pingPrint:
		line := fmt.Sprintf("ipc round %d complete\r\n", p.rounds)
		n := copy(ctx.Memory()[pingTxOff:pingTxOff+pingTxCap], line)
		ctx.Allow(kernel.DriverConsole, allowTx, pingTxOff, uint32(n))
		st, _ := ctx.Command(kernel.DriverConsole, consoleTransmit, uint32(n), 0)
		if st == kernel.StatusSuccess {
			p.phase = pingAwaitPrint
			ctx.YieldWait()
		}

	case pingAwaitPrint:
		if !p.txDone {
			ctx.YieldWait()
			return
		}
		p.txDone = false
		p.phase = pingSleep
	}
}

// Pong memory layout: the fetch destination doubles as the buffer shared
// back toward Ping.
const (
	pongBufOff = 0
	pongBufLen = 16
)

type pongPhase uint8

const (
	pongInit pongPhase = iota
	pongIdle
	pongServe
)

// Pong is the answering side.
type Pong struct {
	peer  kernel.ProcessID
	phase pongPhase

	notified bool
}

// NewPong returns the responder body.
func NewPong() *Pong { return &Pong{} }

// SetPeer points the responder at its partner's slot.
func (p *Pong) SetPeer(id kernel.ProcessID) { p.peer = id }

func (p *Pong) Step(ctx *kernel.Context) {
	switch p.phase {
	case pongInit:
		ctx.Subscribe(kernel.DriverIPC, uint32(p.peer), func(r0, r1, r2 uint32) {
			p.notified = true
		})
		ctx.Allow(kernel.DriverIPC, uint32(p.peer), pongBufOff, pongBufLen)
		p.phase = pongIdle
		ctx.YieldWait()

	case pongIdle:
		if !p.notified {
			ctx.YieldWait()
			return
		}
		p.notified = false
		p.phase = pongServe

	case pongServe:
		ctx.Command(kernel.DriverIPC, ipcFetch, uint32(p.peer), 0)
		ctx.Command(kernel.DriverIPC, ipcNotify, uint32(p.peer), 0)
		p.phase = pongIdle
		ctx.YieldWait()
	}
}
