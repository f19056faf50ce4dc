//go:build !tinygo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// pollKeys translates window input into the byte stream a serial
// terminal would put on the wire and feeds it to the console receiver.
func pollKeys(console *ConsoleUART) {
	var out []byte

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	if ctrl {
		for key, b := range ctrlKeys {
			if inpututil.IsKeyJustPressed(key) {
				out = append(out, b)
			}
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x80 {
			out = append(out, byte(r))
		}
	}

	for key, seq := range specialKeys {
		if inpututil.IsKeyJustPressed(key) {
			out = append(out, seq...)
		}
	}

	if len(out) > 0 {
		console.PushRx(out)
	}
}

var ctrlKeys = map[ebiten.Key]byte{
	ebiten.KeyA: 0x01,
	ebiten.KeyC: 0x03,
	ebiten.KeyD: 0x04,
	ebiten.KeyE: 0x05,
	ebiten.KeyU: 0x15,
	ebiten.KeyW: 0x17,
}

var specialKeys = map[ebiten.Key][]byte{
	ebiten.KeyEnter:      {'\r'},
	ebiten.KeyTab:        {'\t'},
	ebiten.KeyBackspace:  {0x7f},
	ebiten.KeyEscape:     {0x1b},
	ebiten.KeyArrowUp:    {0x1b, '[', 'A'},
	ebiten.KeyArrowDown:  {0x1b, '[', 'B'},
	ebiten.KeyArrowRight: {0x1b, '[', 'C'},
	ebiten.KeyArrowLeft:  {0x1b, '[', 'D'},
}
