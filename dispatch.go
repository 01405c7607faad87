// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/scanout"
)

// handle applies one event to the console state machine.
func (c *Console) handle(ev display.Event) error {
	if c.state == StateDestroyed {
		return c.protocol(eventKind(ev), "console destroyed", nil)
	}
	switch ev := ev.(type) {
	case display.GfxUpdate:
		return c.gfxUpdate(ev.Rect)
	case display.GfxSwitch:
		return c.gfxSwitch(ev.Surface)
	case display.Refresh:
		return c.refresh()
	case display.CursorDefine:
		return c.cursorDefine(ev.Cursor)
	case display.MouseSet:
		return c.mouseSet(ev)
	case display.ScanoutTexture:
		return c.scanoutTexture(ev)
	case display.ScanoutDisable:
		return c.scanoutDisable()
	case display.ScanoutDmabuf:
		return c.scanoutDmabuf(ev.Buf)
	case display.ReleaseDmabuf:
		return c.releaseDmabuf(ev.Buf)
	case display.GLUpdate:
		return c.glUpdate(ev.Rect)
	}
	return fmt.Errorf("%w: %T", ErrUnimplemented, ev)
}

func eventKind(ev display.Event) string {
	if ev == nil {
		return "<nil>"
	}
	return ev.Kind()
}

// skipDisabled reports whether GPU work must be skipped because the
// rendering path of the console is off.
func (c *Console) skipDisabled(kind string) bool {
	if c.disabled == nil {
		return false
	}
	c.log.Debug("vconsole: rendering disabled, event skipped", "event", kind)
	return true
}

func (c *Console) gfxUpdate(r image.Rectangle) error {
	const kind = "gfx-update"
	if c.surface == nil || c.surfaceFB == nil {
		c.log.Debug("vconsole: update without surface texture ignored", "rect", r, "state", c.state)
		return nil
	}
	if c.skipDisabled(kind) {
		return nil
	}
	if _, err := c.ensureGL(); err != nil {
		return err
	}
	if cr := c.pipe.UpdateTexture(c.surfaceFB, c.surface, r); cr.Empty() {
		c.log.Debug("vconsole: update outside surface ignored", "rect", r, "surface", c.surface.Bounds())
		return nil
	}
	if c.state != StateCPUSurface {
		// Uploaded when the console returns to its CPU surface.
		return nil
	}
	return c.flushSurface()
}

// flushSurface uploads the pending region of the surface texture and
// presents it. The context must be current.
func (c *Console) flushSurface() error {
	if err := c.pipe.Flush(c.surfaceFB, c.surface); err != nil {
		return fmt.Errorf("vconsole: console %d: %w", c.index, err)
	}
	c.present()
	return nil
}

func (c *Console) gfxSwitch(ns *display.Surface) error {
	const kind = "gfx-switch"
	if ns == nil {
		return c.protocol(kind, "nil surface", nil)
	}
	if err := ns.Validate(); err != nil {
		return c.protocol(kind, "invalid surface", err)
	}
	if !c.IsGraphic() {
		c.surface = ns
		c.log.Debug("vconsole: surface recorded for non-graphic console", "surface", ns.String())
		return nil
	}

	// The old surface and any scanout go before anything new is created.
	ctx := c.current()
	c.releaseScanout(ctx)
	c.releaseSurface(ctx)
	c.surface = ns

	if ns.IsPlaceholder() && c.index > 0 {
		c.teardownGPU()
		c.state = StateUninitialized
		c.log.Debug("vconsole: placeholder surface, context torn down")
		c.present()
		return nil
	}

	c.state = StateCPUSurface
	if c.skipDisabled(kind) {
		c.present()
		return nil
	}
	if _, err := c.ensureGL(); err != nil {
		return err
	}
	fb, err := c.pipe.CreateTexture(ns)
	if err != nil {
		return c.disable("surface texture", err)
	}
	c.surfaceFB = fb
	c.log.Debug("vconsole: surface switched", "surface", ns.String())
	c.present()
	return nil
}

func (c *Console) refresh() error {
	const kind = "refresh"
	if !c.IsGraphic() || c.state == StateUninitialized {
		c.log.Debug("vconsole: refresh with nothing to show ignored", "state", c.state)
		return nil
	}
	if c.skipDisabled(kind) {
		c.present()
		return nil
	}
	if _, err := c.ensureGL(); err != nil {
		return err
	}
	if c.state == StateCPUSurface && c.surfaceFB != nil {
		return c.flushSurface()
	}
	c.present()
	return nil
}

func (c *Console) scanoutTexture(ev display.ScanoutTexture) error {
	const kind = "gl-scanout-texture"
	if !c.IsGraphic() {
		return c.protocol(kind, "console has no GPU context", nil)
	}
	if c.skipDisabled(kind) {
		return nil
	}
	ctx, err := c.ensureGL()
	if err != nil {
		return err
	}
	view, err := ctx.BorrowTexture(ev.ID)
	if err != nil {
		if errors.Is(err, glctx.ErrUnknownExport) {
			return c.protocol(kind, fmt.Sprintf("texture %d is not exported", ev.ID), err)
		}
		return c.disable("scanout texture view", err)
	}
	if (ev.BackingWidth != 0 && int(ev.BackingWidth) != view.Width()) ||
		(ev.BackingHeight != 0 && int(ev.BackingHeight) != view.Height()) {
		ctx.DestroyTexture(view)
		return c.protocol(kind, fmt.Sprintf("backing %dx%d does not match texture %dx%d",
			ev.BackingWidth, ev.BackingHeight, view.Width(), view.Height()), nil)
	}

	c.release(c.guestFB, ctx)
	c.guestFB = scanout.NewBorrowed(view, ev.ID, ev.Rect, ev.Y0Top)
	c.y0Top = ev.Y0Top
	c.state = StateScanoutTexture
	c.log.Debug("vconsole: scanout texture", "id", ev.ID, "viewport", c.guestFB.Viewport(), "y0top", ev.Y0Top)
	return c.blitScanout(image.Rectangle{})
}

// blitScanout normalizes r of the scanout source into the window buffer
// and presents it. An empty r means the whole source.
func (c *Console) blitScanout(r image.Rectangle) error {
	w, h := c.guestFB.Size()
	win, err := c.pipe.EnsureWindow(c.winFB, w, h)
	if err != nil {
		c.winFB = nil
		return c.disable("window texture", err)
	}
	if win != c.winFB {
		// A new window buffer starts blank.
		r = image.Rectangle{}
	}
	c.winFB = win

	flip := !c.y0Top
	switch c.guestFB.Kind() {
	case scanout.KindBorrowed:
		err = c.pipe.BlitBorrowed(c.winFB, c.guestFB, r, flip)
	case scanout.KindImported:
		err = c.pipe.BlitImported(c.winFB, c.guestFB, r, flip)
	default:
		err = fmt.Errorf("vconsole: cannot blit %s frame buffer", c.guestFB.Kind())
	}
	if err != nil {
		return fmt.Errorf("vconsole: console %d: %w", c.index, err)
	}
	c.present()
	return nil
}

func (c *Console) scanoutDisable() error {
	if !c.state.Scanout() {
		c.log.Debug("vconsole: scanout disable outside scanout ignored", "state", c.state)
		return nil
	}
	ctx := c.current()
	c.releaseScanout(ctx)
	if c.surface == nil {
		c.state = StateUninitialized
		c.present()
		return nil
	}
	c.state = StateCPUSurface
	if ctx != nil && c.pipe != nil && c.surfaceFB != nil {
		return c.flushSurface()
	}
	c.present()
	return nil
}

func (c *Console) scanoutDmabuf(buf *display.Dmabuf) error {
	const kind = "gl-scanout-dmabuf"
	if buf == nil {
		return c.protocol(kind, "nil handle", nil)
	}
	if !c.IsGraphic() {
		return c.protocol(kind, "console has no GPU context", nil)
	}
	if err := scanout.Validate(buf); err != nil {
		return c.protocol(kind, "unsupported buffer", err)
	}
	if c.skipDisabled(kind) {
		return nil
	}
	ctx, err := c.ensureGL()
	if err != nil {
		return err
	}
	lease, reused, err := c.leases.Acquire(buf)
	if err != nil {
		return c.disable("dmabuf import", err)
	}

	c.release(c.guestFB, ctx)
	c.guestFB = scanout.NewImported(lease)
	c.y0Top = buf.Y0Top
	if buf.AllowFences {
		c.fence = lease
	} else {
		c.fence = nil
		c.fencePending = false
	}
	c.state = StateScanoutImported
	c.log.Debug("vconsole: scanout dmabuf",
		"fourcc", display.FourccString(buf.Fourcc), "viewport", buf.Viewport(),
		"reused", reused, "fences", buf.AllowFences)
	return c.blitScanout(image.Rectangle{})
}

func (c *Console) releaseDmabuf(buf *display.Dmabuf) error {
	const kind = "gl-release-dmabuf"
	if buf == nil {
		return c.protocol(kind, "nil handle", nil)
	}
	_, err := c.leases.Release(buf)
	if errors.Is(err, scanout.ErrNotLeased) {
		return c.protocol(kind, "handle is not leased", err)
	}
	if c.guestFB != nil && c.guestFB.Handle() == buf {
		c.guestFB.Detach()
	}
	if c.fence != nil && c.fence.Handle() == buf {
		c.fence = nil
		c.fencePending = false
	}
	c.notifyReleased(buf)
	if err != nil {
		c.log.Warn("vconsole: dmabuf mapping close failed", "err", err)
	}
	return nil
}

func (c *Console) glUpdate(r image.Rectangle) error {
	const kind = "gl-update"
	if !c.state.Scanout() || c.guestFB == nil {
		return c.protocol(kind, fmt.Sprintf("no scanout source in state %s", c.state), nil)
	}
	if !c.guestFB.Attached() {
		return c.protocol(kind, "scanout source was released", nil)
	}
	if c.skipDisabled(kind) {
		return nil
	}
	if _, err := c.ensureGL(); err != nil {
		return err
	}
	return c.blitScanout(r)
}

func (c *Console) cursorDefine(cur *display.Cursor) error {
	const kind = "cursor-define"
	if err := cur.Validate(); err != nil {
		return c.protocol(kind, "invalid cursor", err)
	}
	if !c.IsGraphic() {
		c.log.Debug("vconsole: cursor on non-graphic console ignored")
		return nil
	}
	c.cursor = cur
	if c.skipDisabled(kind) {
		return nil
	}
	ctx, err := c.ensureGL()
	if err != nil {
		return err
	}
	c.release(c.cursorFB, ctx)
	c.cursorFB = nil
	fb, err := c.pipe.CreateCursor(cur)
	if err != nil {
		return c.disable("cursor texture", err)
	}
	c.cursorFB = fb
	if cp, ok := c.comp.(CursorPresenter); ok {
		cp.PresentCursor(c.index, ctx, fb.Texture(), cur.Hotspot())
	}
	return nil
}

func (c *Console) mouseSet(ev display.MouseSet) error {
	if !c.IsGraphic() {
		c.log.Debug("vconsole: pointer on non-graphic console ignored")
		return nil
	}
	c.pointer = image.Pt(ev.X, ev.Y)
	c.pointerVisible = ev.Visible
	if pp, ok := c.comp.(PointerPresenter); ok {
		pp.MovePointer(c.index, ev.X, ev.Y, ev.Visible)
	}
	return nil
}
