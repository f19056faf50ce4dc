package comparator

import (
	"testing"

	"tern/hal"
	"tern/kernel"
)

type scriptApp struct {
	fn func(*kernel.Context)
}

func (a *scriptApp) Step(ctx *kernel.Context) {
	if a.fn != nil {
		a.fn(ctx)
	}
}

func newRig(t *testing.T) (*kernel.Kernel, *hal.SimChip, *hal.SimComparator) {
	t.Helper()
	chip := hal.NewSimChip()
	dev := hal.NewSimComparator(chip, 4)
	k := kernel.New()
	if err := k.RegisterDriver(kernel.DriverComparator, New(dev)); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	return k, chip, dev
}

func TestCompareCommands(t *testing.T) {
	k, _, dev := newRig(t)
	app := &scriptApp{}
	k.AddProcess("p", app, 128)

	dev.SetLevel(1, true)
	dev.SetLevel(2, true) // window pair (2,3): inside

	app.fn = func(ctx *kernel.Context) {
		if st, v := ctx.Command(kernel.DriverComparator, cmdCompare, 1, 0); st != kernel.StatusSuccess || v != 1 {
			t.Fatalf("compare(1)=(%v,%d), want (success,1)", st, v)
		}
		if st, v := ctx.Command(kernel.DriverComparator, cmdCompare, 0, 0); st != kernel.StatusSuccess || v != 0 {
			t.Fatalf("compare(0)=(%v,%d), want (success,0)", st, v)
		}
		if st, _ := ctx.Command(kernel.DriverComparator, cmdCompare, 9, 0); st != kernel.StatusInvalid {
			t.Fatalf("compare(9)=%v, want %v", st, kernel.StatusInvalid)
		}
		if st, v := ctx.Command(kernel.DriverComparator, cmdWindow, 2, 0); st != kernel.StatusSuccess || v != 1 {
			t.Fatalf("window(2)=(%v,%d), want (success,1)", st, v)
		}
		if st, _ := ctx.Command(kernel.DriverComparator, cmdWindow, 3, 0); st != kernel.StatusInvalid {
			t.Fatalf("window(3)=%v, want %v", st, kernel.StatusInvalid)
		}
	}
	k.Step(nil)
}

func TestInterruptFanout(t *testing.T) {
	k, chip, dev := newRig(t)
	a := &scriptApp{}
	b := &scriptApp{}
	k.AddProcess("a", a, 128)
	k.AddProcess("b", b, 128)

	var aFired, bFired uint32
	a.fn = func(ctx *kernel.Context) {
		ctx.Subscribe(kernel.DriverComparator, subFired, func(r0, r1, r2 uint32) {
			aFired = r0 + 1
		})
		if st, _ := ctx.Command(kernel.DriverComparator, cmdEnableIRQ, 3, 0); st != kernel.StatusSuccess {
			t.Fatalf("arm: %v", st)
		}
		ctx.YieldWait()
	}
	b.fn = func(ctx *kernel.Context) {
		ctx.Subscribe(kernel.DriverComparator, subFired, func(r0, r1, r2 uint32) {
			bFired = r0 + 1
		})
		ctx.YieldWait()
	}

	k.Step(nil)
	k.Step(nil)
	dev.SetLevel(3, true)
	chip.ServiceInterrupts()
	k.Step(nil)
	k.Step(nil)

	if aFired != 4 || bFired != 4 {
		t.Fatalf("fired upcalls=(%d,%d), want channel 3 at both", aFired, bFired)
	}
}

func TestDisarm(t *testing.T) {
	k, chip, dev := newRig(t)
	app := &scriptApp{}
	k.AddProcess("p", app, 128)

	fired := 0
	app.fn = func(ctx *kernel.Context) {
		ctx.Subscribe(kernel.DriverComparator, subFired, func(r0, r1, r2 uint32) {
			fired++
		})
		ctx.Command(kernel.DriverComparator, cmdEnableIRQ, 0, 0)
		ctx.Command(kernel.DriverComparator, cmdDisableIRQ, 0, 0)
		ctx.YieldWait()
	}

	k.Step(nil)
	dev.SetLevel(0, true)
	chip.ServiceInterrupts()
	k.Step(nil)

	if fired != 0 {
		t.Fatalf("disarmed comparator delivered %d upcalls", fired)
	}
}
