//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"tern/board"
	"tern/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var headless bool
	flag.BoolVar(&headless, "headless", false, "Run without a window, console on stdio.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.Parse()

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, board.NewStepper, cfg); err != nil {
			if err == context.Canceled {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(board.NewStepper); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
