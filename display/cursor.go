// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"fmt"
	"image"
)

// Cursor is a pointer glyph defined by the guest.
// Pix holds Width*Height pixels in FormatARGB8888 with a tight stride.
type Cursor struct {
	Width  int
	Height int
	HotX   int
	HotY   int
	Pix    []byte
}

// Validate checks that Pix covers the declared dimensions.
func (c *Cursor) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil cursor", ErrInvalidSurface)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: cursor %dx%d", ErrInvalidSurface, c.Width, c.Height)
	}
	if len(c.Pix) < c.Width*c.Height*4 {
		return fmt.Errorf("%w: cursor buffer of %d bytes too small for %dx%d",
			ErrInvalidSurface, len(c.Pix), c.Width, c.Height)
	}
	return nil
}

// Surface views the cursor as an ARGB surface. Pix is shared.
func (c *Cursor) Surface() *Surface {
	return &Surface{
		Width:  c.Width,
		Height: c.Height,
		Stride: c.Width * 4,
		Format: FormatARGB8888,
		Pix:    c.Pix,
	}
}

// Hotspot returns the hotspot clamped to the glyph bounds.
func (c *Cursor) Hotspot() image.Point {
	p := image.Pt(c.HotX, c.HotY)
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X >= c.Width {
		p.X = c.Width - 1
	}
	if p.Y >= c.Height {
		p.Y = c.Height - 1
	}
	return p
}
