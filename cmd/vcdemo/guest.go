package main

import (
	"fmt"
	"image"
	"log"

	"github.com/gogpu/vconsole"
	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/scanout"
)

// guest is a scripted display subsystem with three outputs: a VGA console,
// a serial console and a secondary GPU head that scans out a shared buffer.
type guest struct {
	sys    *display.StaticSubsystem
	width  int
	height int
	shared map[*display.Dmabuf][]byte
}

func newGuest(width, height int) *guest {
	return &guest{
		sys: display.NewStaticSubsystem(
			display.NewStaticSource("vga", true),
			display.NewStaticSource("serial0", false),
			display.NewStaticSource("virtio-gpu.1", true),
		),
		width:  width,
		height: height,
		shared: make(map[*display.Dmabuf][]byte),
	}
}

// importBuffer maps the guest's shared buffers from memory.
func (g *guest) importBuffer(buf *display.Dmabuf) (scanout.Mapping, error) {
	pix, ok := g.shared[buf]
	if !ok {
		return nil, fmt.Errorf("%w: buffer not shared by the guest", scanout.ErrImport)
	}
	return scanout.NewMemoryMapping(pix, nil), nil
}

func (g *guest) emit(index int, ev display.Event) {
	if err := g.sys.Emit(index, ev); err != nil {
		log.Printf("console %d %s: %v", index, ev.Kind(), err)
	}
}

func (g *guest) run(s *vconsole.Session) {
	w, h := g.width, g.height

	// Console 0: a CPU surface with a partial update and a pointer.
	vga := gradient(w, h)
	g.emit(0, display.GfxSwitch{Surface: vga})
	checker(vga, display.Rect(w/4, h/4, w/2, h/2), 16)
	g.emit(0, display.GfxUpdate{Rect: display.Rect(w/4, h/4, w/2, h/2)})
	g.emit(0, display.CursorDefine{Cursor: arrow(12)})
	g.emit(0, display.MouseSet{X: w / 2, Y: h / 2, Visible: true})
	s.Focus().SetKeyboard(mustConsole(s, 0))
	s.Focus().SetPointer(mustConsole(s, 0))

	// Console 1 is serial: its surface is tracked but never rendered.
	g.emit(1, display.GfxSwitch{Surface: display.NewSurface(80, 25, display.FormatXBGR8888)})

	// Console 2: placeholder until the guest driver loads, then a shared
	// bottom-up buffer shown at 3/4 scale.
	g.emit(2, display.GfxSwitch{Surface: display.NewPlaceholderSurface(w, h, display.PlaceholderMessage)})
	g.emit(2, display.GfxSwitch{Surface: gradient(w, h)})
	buf := g.share(w, h)
	g.emit(2, display.ScanoutDmabuf{Buf: buf})
	g.emit(2, display.GLUpdate{Rect: display.Rect(0, 0, w, h)})
	if err := s.ShowConsole(2); err != nil {
		log.Printf("show console 2: %v", err)
	}
	s.ZoomOut()
	if err := s.FrameReleased(2); err != nil {
		log.Printf("frame released: %v", err)
	}

	s.SetPaused(true)
	s.Focus().SetPointer(nil)
	for _, c := range s.All() {
		log.Printf("%s: %s", c, s.ConsoleTitle(c))
	}
}

func mustConsole(s *vconsole.Session, i int) *vconsole.Console {
	c, ok := s.Lookup(i)
	if !ok {
		log.Fatalf("no console %d", i)
	}
	return c
}

// share allocates a bottom-up XBGR buffer with horizontal bands.
func (g *guest) share(w, h int) *display.Dmabuf {
	buf := &display.Dmabuf{
		FD:          -1,
		Width:       w,
		Height:      h,
		Stride:      w * 4,
		Fourcc:      display.FourccXBGR8888,
		Modifier:    display.ModifierLinear,
		Y0Top:       false,
		AllowFences: true,
	}
	pix := make([]byte, w*4*h)
	for y := 0; y < h; y++ {
		band := byte(y * 8 / h * 32)
		for x := 0; x < w; x++ {
			copy(pix[(y*w+x)*4:], []byte{band, 0x60, 0xff - band, 0})
		}
	}
	g.shared[buf] = pix
	return buf
}

// gradient builds an XBGR surface blending red across and blue down.
func gradient(w, h int) *display.Surface {
	s := display.NewSurface(w, h, display.FormatXBGR8888)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(s.Pix[y*s.Stride+x*4:], []byte{byte(x * 255 / w), 0x30, byte(y * 255 / h), 0})
		}
	}
	return s
}

// checker paints a black and white checkerboard over r of s.
func checker(s *display.Surface, r image.Rectangle, cell int) {
	r = r.Intersect(s.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := byte(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 0xff
			}
			copy(s.Pix[y*s.Stride+x*4:], []byte{v, v, v, 0})
		}
	}
}

// arrow builds a size x size ARGB pointer glyph with its hotspot at the tip.
func arrow(size int) *display.Cursor {
	c := &display.Cursor{Width: size, Height: size, Pix: make([]byte, size*size*4)}
	for y := 0; y < size; y++ {
		for x := 0; x <= y; x++ {
			v := byte(0xff)
			if x == 0 || x == y || y == size-1 {
				v = 0
			}
			copy(c.Pix[(y*size+x)*4:], []byte{v, v, v, 0xff})
		}
	}
	return c
}
