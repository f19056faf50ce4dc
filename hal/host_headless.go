//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64
}

// RunHeadless runs the board without a window, console on stdio. With a
// tick budget it returns after that many ticks, which is what smoke runs
// use.
func RunHeadless(ctx context.Context, newBoard func(Devices) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	chip := NewSimChip()
	t := newHostTime()
	console := NewConsoleUART(chip, os.Stdout, nil)
	go stdinReader(console)

	step := newBoard(hostDevices(chip, console, t))

	tk := time.NewTicker(d)
	defer tk.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.step()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
