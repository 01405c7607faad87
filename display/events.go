// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "image"

// Event is a display update notification from the guest display subsystem.
// The set of variants is closed; the bridge switches over the concrete type.
type Event interface {
	// Kind names the event for logs.
	Kind() string

	event()
}

// GfxUpdate reports that a rectangle of the current CPU surface changed.
type GfxUpdate struct {
	Rect image.Rectangle
}

// GfxSwitch replaces the current CPU surface, typically on a mode change.
type GfxSwitch struct {
	Surface *Surface
}

// Refresh asks for the current image to be presented again.
type Refresh struct{}

// CursorDefine sets the pointer glyph.
type CursorDefine struct {
	Cursor *Cursor
}

// MouseSet moves the pointer glyph and sets its visibility.
type MouseSet struct {
	X       int
	Y       int
	Visible bool
}

// ScanoutTexture hands the console a texture rendered by the guest GPU.
// The bridge never takes ownership of the texture.
type ScanoutTexture struct {
	// ID is the texture name exported by the guest renderer.
	ID uint32

	// Y0Top is true when row 0 of the texture is the top of the image.
	Y0Top bool

	// BackingWidth and BackingHeight are the full texture dimensions.
	BackingWidth  uint32
	BackingHeight uint32

	// Rect is the visible region within the texture. An empty Rect means
	// the whole backing texture.
	Rect image.Rectangle
}

// ScanoutDisable ends GPU scanout and returns the console to its CPU surface.
type ScanoutDisable struct{}

// ScanoutDmabuf hands the console a shared buffer to import.
type ScanoutDmabuf struct {
	Buf *Dmabuf
}

// ReleaseDmabuf asks the bridge to give up its lease on a shared buffer.
type ReleaseDmabuf struct {
	Buf *Dmabuf
}

// GLUpdate reports that a rectangle of the scanout source changed.
type GLUpdate struct {
	Rect image.Rectangle
}

func (GfxUpdate) Kind() string      { return "gfx-update" }
func (GfxSwitch) Kind() string      { return "gfx-switch" }
func (Refresh) Kind() string        { return "refresh" }
func (CursorDefine) Kind() string   { return "cursor-define" }
func (MouseSet) Kind() string       { return "mouse-set" }
func (ScanoutTexture) Kind() string { return "gl-scanout-texture" }
func (ScanoutDisable) Kind() string { return "gl-scanout-disable" }
func (ScanoutDmabuf) Kind() string  { return "gl-scanout-dmabuf" }
func (ReleaseDmabuf) Kind() string  { return "gl-release-dmabuf" }
func (GLUpdate) Kind() string       { return "gl-update" }

func (GfxUpdate) event()      {}
func (GfxSwitch) event()      {}
func (Refresh) event()        {}
func (CursorDefine) event()   {}
func (MouseSet) event()       {}
func (ScanoutTexture) event() {}
func (ScanoutDisable) event() {}
func (ScanoutDmabuf) event()  {}
func (ReleaseDmabuf) event()  {}
func (GLUpdate) event()       {}
