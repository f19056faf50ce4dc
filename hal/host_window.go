//go:build !tinygo

package hal

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"tern/internal/buildinfo"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	consoleWidth  = 480
	consoleHeight = 320
)

// RunWindow opens a desktop window that is the board's serial terminal:
// UART transmit renders through a VT100 emulator, keystrokes come back as
// UART receive data. Blocks until the window closes.
func RunWindow(newBoard func(Devices) func() error) error {
	chip := NewSimChip()
	t := newHostTime()
	fb := newHostFramebuffer(consoleWidth, consoleHeight)

	term := tinyterm.NewTerminal(fbDisplay{fb: fb})
	term.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})

	console := NewConsoleUART(chip, term, nil)
	step := newBoard(hostDevices(chip, console, t))

	g := &hostGame{fb: fb, console: console, t: t, step: step}
	ebiten.SetWindowTitle("tern console (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(consoleWidth*2, consoleHeight*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	fb      *hostFramebuffer
	console *ConsoleUART
	t       *hostTime
	step    func() error

	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
}

func (g *hostGame) Update() error {
	pollKeys(g.console)
	g.t.step()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fb.width, g.fb.height
}
