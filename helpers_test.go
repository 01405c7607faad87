// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"fmt"
	"image"
	"testing"

	"github.com/gogpu/vconsole/blit"
	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/internal/gltest"
	"github.com/gogpu/vconsole/scanout"
)

// capture is a Compositor that records every frame and reads its pixels
// while the context is current.
type capture struct {
	frames []Frame
	pix    [][]byte

	cursors []image.Point
	moves   []image.Point
	visible []bool
}

func (c *capture) Present(f Frame) {
	c.frames = append(c.frames, f)
	var pix []byte
	if f.Texture != nil {
		if p, err := blit.ReadRGBA(f.Context, f.Texture); err == nil {
			pix = p
		}
	}
	c.pix = append(c.pix, pix)
}

func (c *capture) PresentCursor(console int, ctx glctx.Context, tex glctx.Texture, hot image.Point) {
	c.cursors = append(c.cursors, hot)
}

func (c *capture) MovePointer(console int, x, y int, visible bool) {
	c.moves = append(c.moves, image.Pt(x, y))
	c.visible = append(c.visible, visible)
}

// last returns the most recent frame for console index.
func (c *capture) last(index int) (Frame, []byte, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Console == index {
			return c.frames[i], c.pix[i], true
		}
	}
	return Frame{}, nil, false
}

// fixture wires a Session to a recording provider, a static subsystem and
// an in-memory dmabuf importer.
type fixture struct {
	t    *testing.T
	rec  *gltest.Recorder
	sys  *display.StaticSubsystem
	comp *capture
	s    *Session

	mem    map[*display.Dmabuf][]byte
	closed map[*display.Dmabuf]int
}

func newFixture(t *testing.T, opts []Option, sources ...*display.StaticSource) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		rec:    gltest.New(),
		sys:    display.NewStaticSubsystem(sources...),
		comp:   &capture{},
		mem:    make(map[*display.Dmabuf][]byte),
		closed: make(map[*display.Dmabuf]int),
	}
	imp := scanout.ImporterFunc(func(buf *display.Dmabuf) (scanout.Mapping, error) {
		pix, ok := f.mem[buf]
		if !ok {
			return nil, fmt.Errorf("%w: unknown buffer", scanout.ErrImport)
		}
		return scanout.NewMemoryMapping(pix, func() { f.closed[buf]++ }), nil
	})
	opts = append([]Option{WithImporter(imp)}, opts...)
	f.s = New(f.rec, f.comp, opts...)
	if err := f.s.Enumerate(f.sys); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := f.s.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(f.s.DestroyAll)
	return f
}

func (f *fixture) emit(index int, ev display.Event) error {
	f.t.Helper()
	return f.sys.Emit(index, ev)
}

func (f *fixture) mustEmit(index int, ev display.Event) {
	f.t.Helper()
	if err := f.sys.Emit(index, ev); err != nil {
		f.t.Fatalf("console %d %s: %v", index, ev.Kind(), err)
	}
}

func (f *fixture) console(index int) *Console {
	f.t.Helper()
	c, ok := f.s.Lookup(index)
	if !ok {
		f.t.Fatalf("no console %d", index)
	}
	return c
}

// dmabuf registers a w x h XBGR buffer whose pixel (x, y) is
// {byte(x), byte(y), 0x40, 0}.
func (f *fixture) dmabuf(w, h int, y0Top, fences bool) *display.Dmabuf {
	buf := &display.Dmabuf{
		FD:          -1,
		Width:       w,
		Height:      h,
		Stride:      w * 4,
		Fourcc:      display.FourccXBGR8888,
		Y0Top:       y0Top,
		AllowFences: fences,
	}
	pix := make([]byte, w*4*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(pix[(y*w+x)*4:], []byte{byte(x), byte(y), 0x40, 0})
		}
	}
	f.mem[buf] = pix
	return buf
}

// surface builds a w x h XBGR surface whose pixel (x, y) is
// {byte(x), byte(y), tag, 0}.
func surface(w, h int, tag byte) *display.Surface {
	s := display.NewSurface(w, h, display.FormatXBGR8888)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(s.Pix[y*s.Stride+x*4:], []byte{byte(x), byte(y), tag, 0})
		}
	}
	return s
}

// pixel returns the RGBA bytes at (x, y) of a tight w-wide buffer.
func pixel(pix []byte, w, x, y int) []byte {
	off := (y*w + x) * 4
	if off+4 > len(pix) {
		return nil
	}
	return pix[off : off+4]
}

// opsFrom returns the logged ops starting at from, filtered to kinds.
func opsFrom(rec *gltest.Recorder, from int, kinds ...string) []gltest.Op {
	var out []gltest.Op
	for i, op := range rec.Ops() {
		if i < from {
			continue
		}
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}
