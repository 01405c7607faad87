// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/vconsole/blit"
	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/scanout"
)

// State is the rendering state of a console.
type State uint8

const (
	// StateUninitialized means the console has no surface to show.
	StateUninitialized State = iota

	// StateCPUSurface shows the guest's CPU surface through an owned texture.
	StateCPUSurface

	// StateScanoutTexture shows a texture rendered by the guest GPU.
	StateScanoutTexture

	// StateScanoutImported shows an imported shared buffer.
	StateScanoutImported

	// StateDestroyed is terminal.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCPUSurface:
		return "cpu-surface"
	case StateScanoutTexture:
		return "scanout-texture"
	case StateScanoutImported:
		return "scanout-imported"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Scanout reports whether s is one of the GPU scanout states.
func (s State) Scanout() bool {
	return s == StateScanoutTexture || s == StateScanoutImported
}

// Console is one guest display output mapped to one host render surface.
//
// Consoles are created by Session.Enumerate and driven by Session.Dispatch.
// They are not safe for concurrent use.
type Console struct {
	index int
	label string
	src   display.Source
	tok   display.Token
	comp  Compositor
	log   *slog.Logger

	gl   *glctx.Manager // nil for non-graphic consoles
	pipe *blit.Pipeline

	state    State
	disabled error

	surface   *display.Surface
	surfaceFB *scanout.FrameBuffer
	guestFB   *scanout.FrameBuffer
	winFB     *scanout.FrameBuffer
	cursorFB  *scanout.FrameBuffer
	cursor    *display.Cursor
	orphans   []glctx.Texture // released while no context was current

	pointer        image.Point
	pointerVisible bool
	scale          scale
	y0Top          bool

	leases       *scanout.LeaseTable
	fence        *scanout.Lease
	fencePending bool
}

// Index returns the stable enumeration position.
func (c *Console) Index() int { return c.index }

// Label returns the console label.
func (c *Console) Label() string { return c.label }

// Source returns the guest display output.
func (c *Console) Source() display.Source { return c.src }

// Token returns the registration token, or the zero token before Register.
func (c *Console) Token() display.Token { return c.tok }

// State returns the rendering state.
func (c *Console) State() State { return c.state }

// IsGraphic reports whether the console renders through a GPU context.
func (c *Console) IsGraphic() bool { return c.gl != nil }

// Disabled returns the error that disabled the rendering path, or nil.
func (c *Console) Disabled() error { return c.disabled }

// ContextActive reports whether the console holds a live GPU context.
func (c *Console) ContextActive() bool { return c.gl != nil && c.gl.Active() }

// Surface returns the current CPU surface, or nil.
func (c *Console) Surface() *display.Surface { return c.surface }

// SurfaceFrameBuffer returns the owned texture of the CPU surface, or nil.
func (c *Console) SurfaceFrameBuffer() *scanout.FrameBuffer { return c.surfaceFB }

// GuestFrameBuffer returns the scanout source (borrowed or imported), or nil.
func (c *Console) GuestFrameBuffer() *scanout.FrameBuffer { return c.guestFB }

// WindowFrameBuffer returns the top-left oriented scanout image, or nil.
func (c *Console) WindowFrameBuffer() *scanout.FrameBuffer { return c.winFB }

// CursorFrameBuffer returns the pointer glyph texture, or nil.
func (c *Console) CursorFrameBuffer() *scanout.FrameBuffer { return c.cursorFB }

// Cursor returns the last defined pointer glyph, or nil.
func (c *Console) Cursor() *display.Cursor { return c.cursor }

// Pointer returns the pointer position and visibility.
func (c *Console) Pointer() (image.Point, bool) { return c.pointer, c.pointerVisible }

// Y0Top reports the orientation of the current scanout source.
func (c *Console) Y0Top() bool { return c.y0Top }

// Leased reports whether the console holds a lease on buf.
func (c *Console) Leased(buf *display.Dmabuf) bool {
	_, ok := c.leases.Lookup(buf)
	return ok
}

// LeaseCount returns the number of live leases.
func (c *Console) LeaseCount() int { return c.leases.Len() }

// FenceBuffer returns the fence-capable buffer retained by the console, or
// nil.
func (c *Console) FenceBuffer() *display.Dmabuf {
	if c.fence == nil {
		return nil
	}
	return c.fence.Handle()
}

func (c *Console) String() string {
	return fmt.Sprintf("console %d %q (%s)", c.index, c.label, c.state)
}

// current makes the live context current without creating one.
func (c *Console) current() glctx.Context {
	if c.gl == nil {
		return nil
	}
	ctx, ok := c.gl.Current()
	if !ok {
		return nil
	}
	return ctx
}

// ensureGL makes the console context current, creating the context and the
// blit pipeline on first use.
func (c *Console) ensureGL() (glctx.Context, error) {
	if c.disabled != nil {
		return nil, c.disabled
	}
	ctx, err := c.gl.EnsureCurrent()
	if err != nil {
		if c.gl.Failed() != nil {
			return nil, c.disable("context", err)
		}
		return nil, fmt.Errorf("vconsole: console %d: %w", c.index, err)
	}
	if c.pipe == nil {
		p, err := blit.New(ctx)
		if err != nil {
			return nil, c.disable("blit program", err)
		}
		c.pipe = p
	}
	c.freeOrphans(ctx)
	return ctx, nil
}

// release frees fb in ctx. A texture that needs a context is kept until
// one is current.
func (c *Console) release(fb *scanout.FrameBuffer, ctx glctx.Context) {
	tex := fb.Release(ctx)
	if tex == nil {
		return
	}
	c.orphans = append(c.orphans, tex)
	c.log.Warn("vconsole: no current context, texture destroy deferred",
		"texture", fmt.Sprintf("%dx%d", tex.Width(), tex.Height()), "pending", len(c.orphans))
}

func (c *Console) freeOrphans(ctx glctx.Context) {
	for _, tex := range c.orphans {
		ctx.DestroyTexture(tex)
	}
	c.orphans = nil
}

// disable turns the rendering path off after a resource failure. Leases
// stay in place so the exporter can still release them.
func (c *Console) disable(op string, err error) error {
	rerr := &ResourceError{Console: c.index, Op: op, Err: err}
	if c.disabled == nil {
		c.disabled = rerr
	}
	c.releaseGPU()
	c.present()
	return rerr
}

func (c *Console) releaseScanout(ctx glctx.Context) {
	c.release(c.guestFB, ctx)
	c.guestFB = nil
	c.release(c.winFB, ctx)
	c.winFB = nil
}

func (c *Console) releaseSurface(ctx glctx.Context) {
	c.release(c.surfaceFB, ctx)
	c.surfaceFB = nil
}

// releaseGPU frees every GPU resource of the console but keeps the context.
func (c *Console) releaseGPU() {
	ctx := c.current()
	c.releaseScanout(ctx)
	c.releaseSurface(ctx)
	c.release(c.cursorFB, ctx)
	c.cursorFB = nil
	if ctx != nil {
		c.freeOrphans(ctx)
	}
	if c.pipe != nil {
		if ctx != nil {
			c.pipe.Close()
		}
		c.pipe = nil
	}
}

// teardownGPU frees every GPU resource, then the context.
func (c *Console) teardownGPU() {
	c.releaseGPU()
	if c.gl != nil {
		c.gl.Destroy()
	}
	// Destroying the context freed whatever was still pending.
	c.orphans = nil
}

// destroy tears the console down for good. GPU resources go first, then
// every lease, then the context.
func (c *Console) destroy() {
	if c.state == StateDestroyed {
		return
	}
	c.releaseGPU()
	for _, buf := range c.leases.ReleaseAll() {
		c.notifyReleased(buf)
	}
	c.fence = nil
	c.fencePending = false
	if c.gl != nil {
		c.gl.Destroy()
	}
	c.orphans = nil
	c.state = StateDestroyed
	c.log.Debug("vconsole: console destroyed")
}

func (c *Console) notifyReleased(buf *display.Dmabuf) {
	if e, ok := c.src.(display.Exporter); ok {
		e.DmabufReleased(buf)
	}
}

// frameReleased signals the pending fence of the last presented frame.
func (c *Console) frameReleased() {
	if !c.fencePending {
		return
	}
	c.fencePending = false
	if c.fence == nil || c.fence.Released() {
		return
	}
	if e, ok := c.src.(display.Exporter); ok {
		e.FenceSignaled(c.fence.Handle())
	}
}

// present sends the current image to the compositor.
func (c *Console) present() {
	f := Frame{
		Console:     c.index,
		Label:       c.label,
		ScaleX:      c.scale.x,
		ScaleY:      c.scale.y,
		FreeScale:   c.scale.free,
		Placeholder: c.surface.IsPlaceholder(),
	}
	if c.disabled == nil && c.pipe != nil {
		var fb *scanout.FrameBuffer
		switch c.state {
		case StateCPUSurface:
			fb = c.surfaceFB
		case StateScanoutTexture, StateScanoutImported:
			fb = c.winFB
		}
		if fb != nil && !fb.Released() {
			// The compositor reads the texture, so its context must be current.
			if ctx := c.current(); ctx != nil {
				f.Texture = fb.Texture()
				f.Context = ctx
				f.Width, f.Height = fb.Size()
			}
		}
	}
	if f.Texture != nil && c.state == StateScanoutImported && c.fence != nil && !c.fence.Released() &&
		c.guestFB != nil && c.guestFB.Handle() == c.fence.Handle() {
		f.Fence = c.fence.Handle()
		c.fencePending = true
	}
	c.comp.Present(f)
}

func (c *Console) protocol(kind, reason string, err error) error {
	return &ProtocolError{Console: c.index, Event: kind, Reason: reason, Err: err}
}
