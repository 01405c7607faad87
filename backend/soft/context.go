// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vconsole/glctx"
)

// storage is the pixel memory behind a texture. Borrowed views share the
// exporter's storage.
type storage struct {
	width  int
	height int
	format gputypes.TextureFormat
	pix    []byte
}

func newStorage(w, h int, f gputypes.TextureFormat) *storage {
	return &storage{width: w, height: h, format: f, pix: make([]byte, w*h*4)}
}

func (s *storage) bounds() image.Rectangle { return image.Rect(0, 0, s.width, s.height) }

func (s *storage) write(r image.Rectangle, pix []byte, stride int) error {
	if r.Empty() || !r.In(s.bounds()) {
		return fmt.Errorf("soft: write rect %v outside %v", r, s.bounds())
	}
	w, h := r.Dx(), r.Dy()
	if stride < w*4 || len(pix) < stride*(h-1)+w*4 {
		return fmt.Errorf("soft: write buffer of %d bytes too small for %v stride %d", len(pix), r, stride)
	}
	for y := 0; y < h; y++ {
		off := ((r.Min.Y+y)*s.width + r.Min.X) * 4
		copy(s.pix[off:off+w*4], pix[y*stride:y*stride+w*4])
	}
	return nil
}

func (s *storage) read(r image.Rectangle) ([]byte, error) {
	if r.Empty() || !r.In(s.bounds()) {
		return nil, fmt.Errorf("soft: read rect %v outside %v", r, s.bounds())
	}
	w, h := r.Dx(), r.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		off := ((r.Min.Y+y)*s.width + r.Min.X) * 4
		copy(out[y*w*4:(y+1)*w*4], s.pix[off:off+w*4])
	}
	return out, nil
}

// Texture is a software texture.
type Texture struct {
	st       *storage
	ctx      *Context
	borrowed bool
	exportID uint32
}

func (t *Texture) Width() int                     { return t.st.width }
func (t *Texture) Height() int                    { return t.st.height }
func (t *Texture) Format() gputypes.TextureFormat { return t.st.format }

// Borrowed reports whether t is a view over an exported texture.
func (t *Texture) Borrowed() bool { return t.borrowed }

// ExportID returns the id t was borrowed from, or zero.
func (t *Texture) ExportID() uint32 { return t.exportID }

// Program is a software shader program. Only the source is kept.
type Program struct {
	name string
	wgsl string
}

func (p *Program) Name() string { return p.name }

// Context is a software rendering context.
type Context struct {
	p         *Provider
	params    glctx.Params
	destroyed bool

	textures map[*Texture]struct{}
	programs map[*Program]struct{}
}

// LiveTextures returns the number of textures and views not yet destroyed.
func (c *Context) LiveTextures() int { return len(c.textures) }

// LivePrograms returns the number of programs not yet destroyed.
func (c *Context) LivePrograms() int { return len(c.programs) }

func (c *Context) check() error {
	if c.destroyed {
		return glctx.ErrContextDestroyed
	}
	if !c.p.isCurrent(c) {
		return glctx.ErrNotCurrent
	}
	return nil
}

func (c *Context) own(t glctx.Texture) (*Texture, error) {
	st, ok := t.(*Texture)
	if !ok || st.ctx != c {
		return nil, fmt.Errorf("%w: %T not owned by this context", glctx.ErrInvalidTexture, t)
	}
	if _, live := c.textures[st]; !live {
		return nil, fmt.Errorf("%w: destroyed", glctx.ErrInvalidTexture)
	}
	return st, nil
}

// CreateTexture implements glctx.Context.
func (c *Context) CreateTexture(desc glctx.TextureDesc) (glctx.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if limit := c.p.opts.MaxTextureSize; limit > 0 && (desc.Width > limit || desc.Height > limit) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", glctx.ErrInvalidTexture, desc.Width, desc.Height, limit)
	}
	t := &Texture{st: newStorage(desc.Width, desc.Height, desc.Format), ctx: c}
	c.textures[t] = struct{}{}
	return t, nil
}

// DestroyTexture implements glctx.Context.
func (c *Context) DestroyTexture(t glctx.Texture) {
	if st, ok := t.(*Texture); ok && st.ctx == c {
		delete(c.textures, st)
	}
}

// WriteTexture implements glctx.Context.
func (c *Context) WriteTexture(t glctx.Texture, r image.Rectangle, pix []byte, stride int) error {
	if err := c.check(); err != nil {
		return err
	}
	st, err := c.own(t)
	if err != nil {
		return err
	}
	return st.st.write(r, pix, stride)
}

// ReadTexture implements glctx.Context.
func (c *Context) ReadTexture(t glctx.Texture, r image.Rectangle) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	st, err := c.own(t)
	if err != nil {
		return nil, err
	}
	return st.st.read(r)
}

// BorrowTexture implements glctx.Context.
func (c *Context) BorrowTexture(id uint32) (glctx.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	st, ok := c.p.export(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", glctx.ErrUnknownExport, id)
	}
	t := &Texture{st: st, ctx: c, borrowed: true, exportID: id}
	c.textures[t] = struct{}{}
	return t, nil
}

// CreateProgram implements glctx.Context.
func (c *Context) CreateProgram(name, wgsl string) (glctx.Program, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if wgsl == "" {
		return nil, errors.New("soft: empty shader source")
	}
	if err := c.p.validateShader(wgsl); err != nil {
		return nil, err
	}
	p := &Program{name: name, wgsl: wgsl}
	c.programs[p] = struct{}{}
	return p, nil
}

// DestroyProgram implements glctx.Context.
func (c *Context) DestroyProgram(p glctx.Program) {
	if sp, ok := p.(*Program); ok {
		delete(c.programs, sp)
	}
}
