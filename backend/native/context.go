// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vconsole/glctx"
)

// textureUsage covers uploads, readback for normalization, and sampling by
// the host compositor.
const textureUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment

// Texture is a HAL texture with its default view.
type Texture struct {
	tex      hal.Texture
	view     hal.TextureView
	width    int
	height   int
	format   gputypes.TextureFormat
	borrowed bool
	ctx      *Context
}

func (t *Texture) Width() int                     { return t.width }
func (t *Texture) Height() int                    { return t.height }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Raw returns the HAL texture.
func (t *Texture) Raw() hal.Texture { return t.tex }

// View returns the default texture view.
func (t *Texture) View() hal.TextureView { return t.view }

// Borrowed reports whether t is a view over an exported texture.
func (t *Texture) Borrowed() bool { return t.borrowed }

// Program is a compiled blit program.
type Program struct {
	name   string
	module hal.ShaderModule
}

func (p *Program) Name() string { return p.name }

// Module returns the HAL shader module.
func (p *Program) Module() hal.ShaderModule { return p.module }

// Context is a logical rendering context on the provider's device.
type Context struct {
	p         *Provider
	params    glctx.Params
	destroyed bool

	textures map[*Texture]struct{}
	programs map[*Program]struct{}
}

// LiveTextures returns the number of textures and views not yet destroyed.
func (c *Context) LiveTextures() int { return len(c.textures) }

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
	nt, ok := t.(*Texture)
	if !ok || nt.ctx != c {
		return nil, fmt.Errorf("%w: %T not owned by this context", glctx.ErrInvalidTexture, t)
	}
	if _, live := c.textures[nt]; !live {
		return nil, fmt.Errorf("%w: destroyed", glctx.ErrInvalidTexture)
	}
	return nt, nil
}

func (c *Context) newView(tex hal.Texture, format gputypes.TextureFormat, label string) (hal.TextureView, error) {
	return c.p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         c.p.label(label + "_view"),
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
}

// CreateTexture implements glctx.Context.
func (c *Context) CreateTexture(desc glctx.TextureDesc) (glctx.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	label := desc.Label
	if label == "" {
		label = "texture"
	}
	tex, err := c.p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         c.p.label(label),
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %dx%d: %w", desc.Width, desc.Height, err)
	}
	view, err := c.newView(tex, desc.Format, label)
	if err != nil {
		c.p.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view: %w", err)
	}
	t := &Texture{tex: tex, view: view, width: desc.Width, height: desc.Height, format: desc.Format, ctx: c}
	c.textures[t] = struct{}{}
	return t, nil
}

// DestroyTexture implements glctx.Context.
func (c *Context) DestroyTexture(t glctx.Texture) {
	nt, ok := t.(*Texture)
	if !ok || nt.ctx != c {
		return
	}
	if _, live := c.textures[nt]; !live {
		return
	}
	c.destroyTexture(nt)
}

func (c *Context) destroyTexture(t *Texture) {
	delete(c.textures, t)
	if t.view != nil {
		c.p.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if !t.borrowed && t.tex != nil {
		c.p.device.DestroyTexture(t.tex)
	}
	t.tex = nil
}

// WriteTexture implements glctx.Context.
func (c *Context) WriteTexture(t glctx.Texture, r image.Rectangle, pix []byte, stride int) error {
	if err := c.check(); err != nil {
		return err
	}
	nt, err := c.own(t)
	if err != nil {
		return err
	}
	bounds := image.Rect(0, 0, nt.width, nt.height)
	if r.Empty() || !r.In(bounds) {
		return fmt.Errorf("%w: write rect %v outside %v", glctx.ErrInvalidTexture, r, bounds)
	}
	w, h := r.Dx(), r.Dy()
	if stride < w*4 || len(pix) < stride*(h-1)+w*4 {
		return fmt.Errorf("%w: buffer of %d bytes too small for %v stride %d", glctx.ErrInvalidTexture, len(pix), r, stride)
	}

	// The upload layout carries its own row pitch, but a tight copy keeps
	// padded guest rows from reaching the device.
	data := pix
	if stride != w*4 {
		data = make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			copy(data[y*w*4:(y+1)*w*4], pix[y*stride:y*stride+w*4])
		}
	}

	err = c.p.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  nt.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y), Z: 0},
		},
		data[:w*h*4],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * 4),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("native: write texture: %w", err)
	}
	return nil
}

// BorrowTexture implements glctx.Context.
func (c *Context) BorrowTexture(id uint32) (glctx.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	e, ok := c.p.lookupExport(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", glctx.ErrUnknownExport, id)
	}
	view, err := c.newView(e.tex, e.format, fmt.Sprintf("export%d", id))
	if err != nil {
		return nil, fmt.Errorf("native: borrow texture %d: %w", id, err)
	}
	t := &Texture{tex: e.tex, view: view, width: e.width, height: e.height, format: e.format, borrowed: true, ctx: c}
	c.textures[t] = struct{}{}
	return t, nil
}

// CreateProgram implements glctx.Context.
func (c *Context) CreateProgram(name, wgsl string) (glctx.Program, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	spirv, err := compileShaderToSPIRV(wgsl)
	if err != nil {
		return nil, fmt.Errorf("native: program %q: %w", name, err)
	}
	module, err := c.p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.p.label(name),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", name, err)
	}
	p := &Program{name: name, module: module}
	c.programs[p] = struct{}{}
	return p, nil
}

// DestroyProgram implements glctx.Context.
func (c *Context) DestroyProgram(p glctx.Program) {
	np, ok := p.(*Program)
	if !ok {
		return
	}
	if _, live := c.programs[np]; !live {
		return
	}
	c.destroyProgram(np)
}

func (c *Context) destroyProgram(p *Program) {
	delete(c.programs, p)
	if p.module != nil {
		c.p.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}
