//go:build tinygo

package main

import (
	"tern/board"
	"tern/hal"
)

func main() {
	b, err := board.New(hal.New())
	if err != nil {
		panic(err)
	}
	b.Run()
}
