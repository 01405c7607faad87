// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder surface defaults.
const (
	PlaceholderWidth   = 640
	PlaceholderHeight  = 480
	PlaceholderMessage = "Display output is not active."
)

// Surface errors.
var (
	// ErrInvalidSurface is returned when surface geometry does not fit its buffer.
	ErrInvalidSurface = errors.New("display: invalid surface")
)

// Surface is a CPU framebuffer owned by the guest display subsystem.
//
// The bridge reads Pix when it uploads dirty regions and never writes to it.
// The guest keeps ownership: a surface stays valid until the next GfxSwitch
// event replaces it.
type Surface struct {
	// Width and Height are the visible dimensions in pixels.
	Width  int
	Height int

	// Stride is the number of bytes per row, at least Width*4.
	Stride int

	// Format is the packed pixel layout of Pix.
	Format Format

	// Pix holds Height rows of Stride bytes.
	Pix []byte

	placeholder bool
}

// NewSurface allocates a zeroed surface with a tight stride.
func NewSurface(width, height int, format Format) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := width * format.BytesPerPixel()
	return &Surface{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    make([]byte, stride*height),
	}
}

// NewSurfaceFrom wraps an existing pixel buffer. The buffer is not copied.
func NewSurfaceFrom(width, height, stride int, format Format, pix []byte) (*Surface, error) {
	s := &Surface{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    pix,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the size is positive and that Pix holds every row
// at the given stride.
func (s *Surface) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil surface", ErrInvalidSurface)
	}
	bpp := s.Format.BytesPerPixel()
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSurface, s.Width, s.Height)
	}
	if s.Stride < s.Width*bpp {
		return fmt.Errorf("%w: stride %d too small for width %d", ErrInvalidSurface, s.Stride, s.Width)
	}
	if len(s.Pix) < s.Stride*(s.Height-1)+s.Width*bpp {
		return fmt.Errorf("%w: buffer of %d bytes too small for %dx%d stride %d",
			ErrInvalidSurface, len(s.Pix), s.Width, s.Height, s.Stride)
	}
	return nil
}

// NewPlaceholderSurface builds the marker surface shown while a display
// output has no real framebuffer. The message is drawn centered in white on
// black. Non-positive dimensions fall back to the default placeholder size.
func NewPlaceholderSurface(width, height int, msg string) *Surface {
	if width <= 0 || height <= 0 {
		width, height = PlaceholderWidth, PlaceholderHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	if msg != "" {
		face := basicfont.Face7x13
		d := &font.Drawer{Dst: img, Src: image.White, Face: face}
		x := (fixed.I(width) - d.MeasureString(msg)) / 2
		if x < 0 {
			x = 0
		}
		m := face.Metrics()
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(height)/2 + (m.Ascent-m.Descent)/2}
		d.DrawString(msg)
	}

	return &Surface{
		Width:       width,
		Height:      height,
		Stride:      img.Stride,
		Format:      FormatXBGR8888,
		Pix:         img.Pix,
		placeholder: true,
	}
}

// IsPlaceholder reports whether the surface marks an inactive output.
func (s *Surface) IsPlaceholder() bool {
	return s != nil && s.placeholder
}

// Bounds returns the surface rectangle anchored at the origin.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Clamp intersects r with the surface bounds.
// The result is empty when r lies entirely outside the surface.
func (s *Surface) Clamp(r image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(s.Bounds())
}

// Row returns the bytes of row y between columns x0 and x1.
// The caller must pass coordinates inside Bounds.
func (s *Surface) Row(y, x0, x1 int) []byte {
	bpp := s.Format.BytesPerPixel()
	off := y * s.Stride
	return s.Pix[off+x0*bpp : off+x1*bpp]
}

// SameGeometry reports whether o has the same size and format as s.
func (s *Surface) SameGeometry(o *Surface) bool {
	if s == nil || o == nil {
		return false
	}
	return s.Width == o.Width && s.Height == o.Height && s.Format == o.Format
}

func (s *Surface) String() string {
	if s == nil {
		return "<nil>"
	}
	kind := ""
	if s.placeholder {
		kind = " placeholder"
	}
	return fmt.Sprintf("%dx%d %s%s", s.Width, s.Height, s.Format, kind)
}

// Rect builds a rectangle from an origin and a size, the way guest update
// notifications describe dirty regions.
func Rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}
