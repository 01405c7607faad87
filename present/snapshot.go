// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"image"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/vconsole"
	"github.com/gogpu/vconsole/blit"
	"github.com/gogpu/vconsole/glctx"
)

// Snapshot is a compositor that keeps a CPU copy of the latest frame of
// every console. Present, PresentCursor and MovePointer run on the display
// thread; Image may be called from any goroutine.
type Snapshot struct {
	mu       sync.Mutex
	consoles map[int]*snapshotEntry
	log      *slog.Logger
}

var (
	_ vconsole.Compositor       = (*Snapshot)(nil)
	_ vconsole.CursorPresenter  = (*Snapshot)(nil)
	_ vconsole.PointerPresenter = (*Snapshot)(nil)
)

type snapshotEntry struct {
	label  string
	frame  *image.RGBA
	scaleX float64
	scaleY float64
	free   bool

	cursor  *image.NRGBA
	hotspot image.Point
	pointer image.Point
	visible bool

	gen uint64
}

// NewSnapshot creates an empty snapshot compositor. A nil log uses the
// vconsole package logger.
func NewSnapshot(log *slog.Logger) *Snapshot {
	if log == nil {
		log = vconsole.Logger()
	}
	return &Snapshot{
		consoles: make(map[int]*snapshotEntry),
		log:      log,
	}
}

func (s *Snapshot) entry(console int) *snapshotEntry {
	e, ok := s.consoles[console]
	if !ok {
		e = &snapshotEntry{scaleX: 1, scaleY: 1}
		s.consoles[console] = e
	}
	return e
}

// Present implements vconsole.Compositor. It reads the frame texture back
// while its context is current.
func (s *Snapshot) Present(f vconsole.Frame) {
	var img *image.RGBA
	if f.Texture != nil {
		pix, err := blit.ReadRGBA(f.Context, f.Texture)
		if err != nil {
			s.log.Warn("present: frame read-back failed", "console", f.Console, "err", err)
		} else {
			img = opaque(pix, f.Texture.Width(), f.Texture.Height())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(f.Console)
	e.label = f.Label
	e.frame = img
	e.scaleX, e.scaleY, e.free = f.ScaleX, f.ScaleY, f.FreeScale
	e.gen++
}

// PresentCursor implements vconsole.CursorPresenter.
func (s *Snapshot) PresentCursor(console int, ctx glctx.Context, tex glctx.Texture, hotspot image.Point) {
	pix, err := blit.ReadRGBA(ctx, tex)
	if err != nil {
		s.log.Warn("present: cursor read-back failed", "console", console, "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(console)
	e.cursor = &image.NRGBA{Pix: pix, Stride: tex.Width() * 4, Rect: image.Rect(0, 0, tex.Width(), tex.Height())}
	e.hotspot = hotspot
	e.gen++
}

// MovePointer implements vconsole.PointerPresenter.
func (s *Snapshot) MovePointer(console int, x, y int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(console)
	e.pointer = image.Pt(x, y)
	e.visible = visible
	e.gen++
}

// Image returns the latest image of console, scaled and with the pointer
// glyph drawn over it. It reports false when the console has nothing to
// show.
func (s *Snapshot) Image(console int) (*image.RGBA, bool) {
	img, _, ok := s.image(console)
	return img, ok
}

// Label returns the label of the last frame presented for console.
func (s *Snapshot) Label(console int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.consoles[console]; ok {
		return e.label
	}
	return ""
}

// Consoles returns the indices that presented at least once.
func (s *Snapshot) Consoles() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.consoles))
	for i := range s.consoles {
		out = append(out, i)
	}
	return out
}

// image composes the output of console and returns it with its generation.
func (s *Snapshot) image(console int) (*image.RGBA, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.consoles[console]
	if !ok || e.frame == nil {
		return nil, 0, false
	}

	sx, sy := e.scaleX, e.scaleY
	if e.free || sx <= 0 || sy <= 0 {
		sx, sy = 1, 1
	}
	src := e.frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, scaled(src.Dx(), sx), scaled(src.Dy(), sy)))
	if dst.Bounds().Size() == src.Size() {
		draw.Copy(dst, image.Point{}, e.frame, src, draw.Src, nil)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), e.frame, src, draw.Src, nil)
	}

	if e.visible && e.cursor != nil {
		at := image.Pt(int(float64(e.pointer.X)*sx), int(float64(e.pointer.Y)*sy)).Sub(e.hotspot)
		r := e.cursor.Bounds().Add(at)
		draw.Draw(dst, r, e.cursor, image.Point{}, draw.Over)
	}
	return dst, e.gen, true
}

func scaled(n int, f float64) int {
	v := int(math.Round(float64(n) * f))
	if v < 1 {
		return 1
	}
	return v
}

// opaque wraps tight RGBA rows as an image with every alpha set to 0xff.
// Guest frames carry no meaningful alpha.
func opaque(pix []byte, w, h int) *image.RGBA {
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
	return &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}
