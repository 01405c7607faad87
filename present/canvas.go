// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
)

// Common errors returned by HostCanvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("present: canvas is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("present: nil DeviceProvider")

	// ErrInvalidRenderer is returned when the draw context has no texture creator.
	ErrInvalidRenderer = errors.New("present: draw context has no gpucontext.TextureCreator")

	// ErrInvalidTexture is returned when the host returns a texture it cannot draw.
	ErrInvalidTexture = errors.New("present: host texture does not implement gpucontext.Texture")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// hostTexture is the host copy of one console image.
type hostTexture struct {
	tex    any
	width  int
	height int
	gen    uint64
}

// HostCanvas is a Snapshot that also draws console images into a
// gpucontext host. It is NOT safe for concurrent use of RenderTo and Close.
type HostCanvas struct {
	*Snapshot

	provider gpucontext.DeviceProvider
	textures map[int]*hostTexture
	closed   bool
}

// NewHostCanvas creates a canvas for the host that provided p, for example
// gogpu.App.GPUContextProvider(). A nil log uses the vconsole package
// logger.
func NewHostCanvas(p gpucontext.DeviceProvider, log *slog.Logger) (*HostCanvas, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	return &HostCanvas{
		Snapshot: NewSnapshot(log),
		provider: p,
		textures: make(map[int]*hostTexture),
	}, nil
}

// Provider returns the DeviceProvider associated with this canvas.
// Returns nil if the canvas is closed.
func (c *HostCanvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// RenderTo draws the latest image of console at (0, 0).
//
// Example:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer(), 0)
//	})
func (c *HostCanvas) RenderTo(dc gpucontext.TextureDrawer, console int) error {
	return c.RenderToPosition(dc, console, 0, 0)
}

// RenderToPosition draws the latest image of console at (x, y). Nothing is
// drawn while the console has no image. The host texture is uploaded only
// when the image changed since the last call.
func (c *HostCanvas) RenderToPosition(dc gpucontext.TextureDrawer, console int, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	img, gen, ok := c.image(console)
	if !ok {
		return nil
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()

	t := c.textures[console]
	switch {
	case t != nil && t.gen == gen:
	case t != nil && t.width == w && t.height == h:
		if updater, ok := t.tex.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(img.Pix); err != nil {
				return fmt.Errorf("present: console %d: texture update failed: %w", console, err)
			}
			t.gen = gen
			break
		}
		fallthrough
	default:
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		realTex, err := creator.NewTextureFromRGBA(w, h, img.Pix)
		if err != nil {
			return fmt.Errorf("present: console %d: NewTextureFromRGBA failed: %w", console, err)
		}
		if t != nil {
			destroy(t.tex)
		}
		t = &hostTexture{tex: realTex, width: w, height: h, gen: gen}
		c.textures[console] = t
	}

	gpuTex, ok := t.tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return dc.DrawTexture(gpuTex, x, y)
}

// Close destroys every host texture. Close is idempotent.
func (c *HostCanvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for i, t := range c.textures {
		destroy(t.tex)
		delete(c.textures, i)
	}
	c.provider = nil
	return nil
}

func destroy(tex any) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
