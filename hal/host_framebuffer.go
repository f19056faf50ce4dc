//go:build !tinygo

package hal

import (
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
)

// hostFramebuffer is the RGB565 pixel store behind the windowed console.
type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) setPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	pixel := rgb565(c.R, c.G, c.B)
	f.mu.Lock()
	off := y*f.stride + x*2
	f.buf[off] = byte(pixel)
	f.buf[off+1] = byte(pixel >> 8)
	f.mu.Unlock()
}

func (f *hostFramebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	copy(dst, f.buf)
	f.mu.Unlock()
}

// fbDisplay adapts the framebuffer to the drivers.Displayer surface
// tinyterm draws through.
type fbDisplay struct {
	fb *hostFramebuffer
}

var _ drivers.Displayer = fbDisplay{}

func (d fbDisplay) Size() (x, y int16) {
	return int16(d.fb.width), int16(d.fb.height)
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	d.fb.setPixel(int(x), int(y), c)
}

func (d fbDisplay) Display() error { return nil }
