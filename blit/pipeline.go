// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/scanout"
)

var (
	// ErrClosed is returned by a Pipeline after Close.
	ErrClosed = errors.New("blit: pipeline closed")

	// ErrDetached is returned when blitting from an imported frame buffer
	// whose lease was given back.
	ErrDetached = errors.New("blit: source detached")

	// ErrSizeMismatch is returned when a window buffer does not match its
	// source.
	ErrSizeMismatch = errors.New("blit: size mismatch")
)

// Pipeline uploads and blits console pixels within one context. Callers
// make the context current before each call.
type Pipeline struct {
	ctx  glctx.Context
	prog glctx.Program
}

// New compiles the blit program in ctx.
func New(ctx glctx.Context) (*Pipeline, error) {
	prog, err := ctx.CreateProgram(ProgramName, blitShaderSource)
	if err != nil {
		return nil, fmt.Errorf("blit: create program: %w", err)
	}
	return &Pipeline{ctx: ctx, prog: prog}, nil
}

// Context returns the context the pipeline draws in.
func (p *Pipeline) Context() glctx.Context { return p.ctx }

// Close destroys the program. It is safe to call more than once.
func (p *Pipeline) Close() {
	if p.prog == nil {
		return
	}
	p.ctx.DestroyProgram(p.prog)
	p.prog = nil
}

func (p *Pipeline) check() error {
	if p.prog == nil {
		return ErrClosed
	}
	return nil
}

// CreateTexture allocates an owned texture sized to s and uploads the whole
// surface.
func (p *Pipeline) CreateTexture(s *display.Surface) (*scanout.FrameBuffer, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	tex, err := p.ctx.CreateTexture(glctx.TextureDesc{
		Label:  "surface",
		Width:  s.Width,
		Height: s.Height,
		Format: TextureFormat(s.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create surface texture: %w", err)
	}
	fb := scanout.NewOwned(tex)
	fb.MarkDirty(s.Bounds())
	if err := p.Flush(fb, s); err != nil {
		fb.Release(p.ctx)
		return nil, err
	}
	return fb, nil
}

// UpdateTexture clamps r to the surface and adds it to the pending region
// of fb. It returns the clamped rectangle, which is empty when r lies
// outside the surface.
func (p *Pipeline) UpdateTexture(fb *scanout.FrameBuffer, s *display.Surface, r image.Rectangle) image.Rectangle {
	c := s.Clamp(r)
	fb.MarkDirty(c)
	return c
}

// Flush uploads the pending region of fb from s.
func (p *Pipeline) Flush(fb *scanout.FrameBuffer, s *display.Surface) error {
	if err := p.check(); err != nil {
		return err
	}
	r := s.Clamp(fb.TakeDirty())
	if r.Empty() {
		return nil
	}
	if err := p.ctx.WriteTexture(fb.Texture(), r, PackRect(s, r), r.Dx()*4); err != nil {
		return fmt.Errorf("blit: upload %v: %w", r, err)
	}
	return nil
}

// DestroyTexture frees fb.
func (p *Pipeline) DestroyTexture(fb *scanout.FrameBuffer) {
	fb.Release(p.ctx)
}

// CreateCursor uploads a cursor glyph into an owned texture.
func (p *Pipeline) CreateCursor(c *display.Cursor) (*scanout.FrameBuffer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return p.CreateTexture(c.Surface())
}

// EnsureWindow returns a window frame buffer of the given size, reusing fb
// when it already matches and releasing it otherwise.
func (p *Pipeline) EnsureWindow(fb *scanout.FrameBuffer, width, height int) (*scanout.FrameBuffer, error) {
	if fb != nil && !fb.Released() {
		if w, h := fb.Size(); w == width && h == height {
			return fb, nil
		}
		fb.Release(p.ctx)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	tex, err := p.ctx.CreateTexture(glctx.TextureDesc{
		Label:  "window",
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create window texture: %w", err)
	}
	return scanout.NewOwned(tex), nil
}

// windowRect clamps r to the window bounds. An empty r means the whole
// window.
func windowRect(dst *scanout.FrameBuffer, src *scanout.FrameBuffer, r image.Rectangle) (image.Rectangle, error) {
	sw, sh := src.Size()
	dw, dh := dst.Size()
	if sw != dw || sh != dh {
		return image.Rectangle{}, fmt.Errorf("%w: window %dx%d, source %dx%d", ErrSizeMismatch, dw, dh, sw, sh)
	}
	bounds := image.Rect(0, 0, dw, dh)
	if r.Empty() {
		return bounds, nil
	}
	return r.Canon().Intersect(bounds), nil
}

// BlitBorrowed copies r of a borrowed source into the window frame buffer.
// With flip, source rows are reversed so that row 0 of dst is the top of
// the image.
func (p *Pipeline) BlitBorrowed(dst, src *scanout.FrameBuffer, r image.Rectangle, flip bool) error {
	if err := p.check(); err != nil {
		return err
	}
	r, err := windowRect(dst, src, r)
	if err != nil || r.Empty() {
		return err
	}
	pix, err := p.ctx.ReadTexture(src.Texture(), sourceRect(r, src.Viewport(), flip))
	if err != nil {
		return fmt.Errorf("blit: read scanout texture: %w", err)
	}
	stride := r.Dx() * 4
	if flip {
		FlipRows(pix, stride, r.Dy())
	}
	if src.Format() == gputypes.TextureFormatBGRA8Unorm {
		ToRGBA(pix, true, false)
	}
	if err := p.ctx.WriteTexture(dst.Texture(), r, pix, stride); err != nil {
		return fmt.Errorf("blit: write window: %w", err)
	}
	return nil
}

// BlitImported copies r of an imported source into the window frame
// buffer, converting the buffer's format to RGBA.
func (p *Pipeline) BlitImported(dst, src *scanout.FrameBuffer, r image.Rectangle, flip bool) error {
	if err := p.check(); err != nil {
		return err
	}
	lease := src.Lease()
	if lease == nil || !src.Attached() {
		return ErrDetached
	}
	mapped, err := lease.Pix()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDetached, err)
	}
	r, err = windowRect(dst, src, r)
	if err != nil || r.Empty() {
		return err
	}

	buf := lease.Handle()
	f, ok := buf.Format()
	if !ok {
		return fmt.Errorf("%w: fourcc %s", scanout.ErrUnsupportedBuffer, display.FourccString(buf.Fourcc))
	}
	sr := sourceRect(r, src.Viewport(), flip)
	if need := (sr.Max.Y-1)*buf.Stride + sr.Max.X*4; need > len(mapped) {
		return fmt.Errorf("%w: mapping of %d bytes, need %d", scanout.ErrUnsupportedBuffer, len(mapped), need)
	}

	w, h := r.Dx(), r.Dy()
	stride := w * 4
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		sy := sr.Min.Y + y
		if flip {
			sy = sr.Max.Y - 1 - y
		}
		off := sy*buf.Stride + sr.Min.X*4
		row := pix[y*stride : (y+1)*stride]
		copy(row, mapped[off:off+stride])
		ToRGBA(row, f.IsBGR(), !f.HasAlpha())
	}
	if err := p.ctx.WriteTexture(dst.Texture(), r, pix, stride); err != nil {
		return fmt.Errorf("blit: write window: %w", err)
	}
	return nil
}

// ReadRGBA reads the whole texture as tight RGBA rows.
func ReadRGBA(ctx glctx.Context, tex glctx.Texture) ([]byte, error) {
	pix, err := ctx.ReadTexture(tex, image.Rect(0, 0, tex.Width(), tex.Height()))
	if err != nil {
		return nil, err
	}
	if tex.Format() == gputypes.TextureFormatBGRA8Unorm {
		ToRGBA(pix, true, false)
	}
	return pix, nil
}
