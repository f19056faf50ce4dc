package ipc

import (
	"testing"

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

// Slot order is fixed: a is pid 0, b is pid 1, and the scheduler runs
// them alternately. Tests stage the fn fields turn by turn.
func newRig(t *testing.T) (*kernel.Kernel, *scriptApp, *scriptApp) {
	t.Helper()
	k := kernel.New()
	if err := k.RegisterDriver(kernel.DriverIPC, New(k)); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	a := &scriptApp{}
	b := &scriptApp{}
	if _, err := k.AddProcess("a", a, 256); err != nil {
		t.Fatalf("AddProcess(a): %v", err)
	}
	if _, err := k.AddProcess("b", b, 256); err != nil {
		t.Fatalf("AddProcess(b): %v", err)
	}
	return k, a, b
}

func TestShareNotifyFetch(t *testing.T) {
	k, a, b := newRig(t)

	a.fn = func(ctx *kernel.Context) {
		copy(ctx.Memory()[0:], "ping")
		ctx.Allow(kernel.DriverIPC, 1, 0, 4)
	}
	var notifyFrom, notifyLen uint32
	notified := false
	b.fn = func(ctx *kernel.Context) {
		ctx.Subscribe(kernel.DriverIPC, 0, func(r0, r1, r2 uint32) {
			notified = true
			notifyFrom = r0
			notifyLen = r1
		})
		ctx.Allow(kernel.DriverIPC, 0, 0, 16)
		ctx.YieldWait()
	}
	k.Step(nil) // a shares its message toward b
	k.Step(nil) // b subscribes and shares a return buffer

	a.fn = func(ctx *kernel.Context) {
		if st, _ := ctx.Command(kernel.DriverIPC, cmdNotify, 1, 0); st != kernel.StatusSuccess {
			t.Fatalf("notify: %v", st)
		}
		ctx.YieldWait()
	}
	k.Step(nil) // a notifies
	k.Step(nil) // b hears the upcall

	if !notified {
		t.Fatal("notify upcall never arrived")
	}
	if notifyFrom != 0 || notifyLen != 4 {
		t.Fatalf("notify args=(%d,%d), want (0,4)", notifyFrom, notifyLen)
	}

	var got [4]byte
	b.fn = func(ctx *kernel.Context) {
		st, n := ctx.Command(kernel.DriverIPC, cmdFetch, 0, 0)
		if st != kernel.StatusSuccess || n != 4 {
			t.Fatalf("fetch=(%v,%d), want (success,4)", st, n)
		}
		copy(got[:], ctx.Memory()[0:4])
	}
	k.Step(nil) // b pulls the bytes
	if string(got[:]) != "ping" {
		t.Fatalf("fetched %q, want %q", got[:], "ping")
	}
}

func TestNotifyWithoutListener(t *testing.T) {
	k, a, _ := newRig(t)
	a.fn = func(ctx *kernel.Context) {
		if st, _ := ctx.Command(kernel.DriverIPC, cmdNotify, 1, 0); st != kernel.StatusFail {
			t.Fatalf("notify without listener: %v, want %v", st, kernel.StatusFail)
		}
		if st, _ := ctx.Command(kernel.DriverIPC, cmdNotify, 7, 0); st != kernel.StatusInvalid {
			t.Fatalf("notify unknown pid: %v, want %v", st, kernel.StatusInvalid)
		}
	}
	k.Step(nil)
}

func TestNotifyBackpressure(t *testing.T) {
	k, a, b := newRig(t)

	b.fn = func(ctx *kernel.Context) {
		ctx.Subscribe(kernel.DriverIPC, 0, func(r0, r1, r2 uint32) {})
		ctx.YieldWait()
	}
	k.Step(nil) // a idles
	k.Step(nil) // b subscribes

	full := false
	a.fn = func(ctx *kernel.Context) {
		for i := 0; i < 16; i++ {
			st, _ := ctx.Command(kernel.DriverIPC, cmdNotify, 1, 0)
			if st == kernel.StatusBusy {
				full = true
				return
			}
			if st != kernel.StatusSuccess {
				t.Fatalf("notify %d: %v", i, st)
			}
		}
	}
	k.Step(nil) // a floods until b's queue pushes back

	if !full {
		t.Fatal("notify never reported backpressure")
	}
}

func TestFetchValidation(t *testing.T) {
	k, a, b := newRig(t)

	b.fn = func(ctx *kernel.Context) {
		if st, _ := ctx.Command(kernel.DriverIPC, cmdFetch, 0, 0); st != kernel.StatusFail {
			t.Fatalf("fetch with nothing shared: %v, want %v", st, kernel.StatusFail)
		}
		if st, _ := ctx.Command(kernel.DriverIPC, cmdFetch, 7, 0); st != kernel.StatusInvalid {
			t.Fatalf("fetch unknown pid: %v, want %v", st, kernel.StatusInvalid)
		}
	}
	k.Step(nil) // a idles
	k.Step(nil) // b fetches into the void

	a.fn = func(ctx *kernel.Context) {
		copy(ctx.Memory()[0:], "data")
		ctx.Allow(kernel.DriverIPC, 1, 0, 4)
	}
	b.fn = func(ctx *kernel.Context) {
		// a has shared, but b has no buffer back toward a.
		if st, _ := ctx.Command(kernel.DriverIPC, cmdFetch, 0, 0); st != kernel.StatusInvalid {
			t.Fatalf("fetch without destination: %v, want %v", st, kernel.StatusInvalid)
		}
	}
	k.Step(nil) // a shares
	k.Step(nil) // b has nowhere to put it
}

func TestUnshareRevokes(t *testing.T) {
	k, a, b := newRig(t)

	a.fn = func(ctx *kernel.Context) {
		copy(ctx.Memory()[0:], "data")
		ctx.Allow(kernel.DriverIPC, 1, 0, 4)
	}
	b.fn = func(ctx *kernel.Context) {
		ctx.Allow(kernel.DriverIPC, 0, 0, 16)
	}
	k.Step(nil)
	k.Step(nil)

	a.fn = func(ctx *kernel.Context) {
		ctx.Allow(kernel.DriverIPC, 1, 0, 0) // unshare
	}
	b.fn = func(ctx *kernel.Context) {
		if st, _ := ctx.Command(kernel.DriverIPC, cmdFetch, 0, 0); st != kernel.StatusFail {
			t.Fatalf("fetch after unshare: %v, want %v", st, kernel.StatusFail)
		}
	}
	k.Step(nil)
	k.Step(nil)
}
