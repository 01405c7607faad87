// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"fmt"
	"image"
)

// Dmabuf describes a shared GPU buffer exported by the guest renderer.
//
// The exporter keeps ownership of FD. The bridge takes a usage lease when it
// imports the buffer and gives it back exactly once, after which it must not
// touch the buffer again. Handles are compared by pointer identity: the
// exporter passes the same *Dmabuf to the import and the release event.
type Dmabuf struct {
	// FD is the file descriptor of the buffer.
	FD int

	// Width and Height are the scanout dimensions.
	Width  int
	Height int

	// Stride is the number of bytes per row of the backing buffer.
	Stride int

	// Fourcc is the DRM pixel format code.
	Fourcc uint32

	// Modifier is the DRM format modifier.
	Modifier uint64

	// X and Y locate the scanout within the backing buffer.
	X int
	Y int

	// BackingWidth and BackingHeight are the dimensions of the whole buffer.
	// Zero means the backing matches Width and Height.
	BackingWidth  int
	BackingHeight int

	// Y0Top is true when row 0 is the top of the image.
	Y0Top bool

	// AllowFences indicates the exporter waits for a fence signal before
	// reusing the buffer contents.
	AllowFences bool
}

// Backing returns the backing buffer dimensions.
func (d *Dmabuf) Backing() (width, height int) {
	width, height = d.BackingWidth, d.BackingHeight
	if width <= 0 {
		width = d.X + d.Width
	}
	if height <= 0 {
		height = d.Y + d.Height
	}
	return width, height
}

// Size returns the number of bytes covered by the backing buffer.
func (d *Dmabuf) Size() int {
	_, h := d.Backing()
	return d.Stride * h
}

// Viewport returns the scanout rectangle within the backing buffer.
func (d *Dmabuf) Viewport() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

// Format returns the pixel layout for Fourcc.
func (d *Dmabuf) Format() (Format, bool) {
	return FormatFromFourcc(d.Fourcc)
}

// IsLinear reports whether the modifier describes a row-major layout.
func (d *Dmabuf) IsLinear() bool {
	return d.Modifier == ModifierLinear || d.Modifier == ModifierInvalid
}

func (d *Dmabuf) String() string {
	if d == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dmabuf(fd=%d %dx%d stride=%d %s mod=%#x fences=%v)",
		d.FD, d.Width, d.Height, d.Stride, FourccString(d.Fourcc), d.Modifier, d.AllowFences)
}
