// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"image"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
)

// Frame is one presentation request for the host compositor.
type Frame struct {
	// Console is the console index.
	Console int

	// Label is the console label.
	Label string

	// Texture holds the top-left oriented image. It is nil when the console
	// has nothing to show or its rendering path is disabled.
	Texture glctx.Texture

	// Context is the context Texture lives in. It is current during
	// Present.
	Context glctx.Context

	// Width and Height are the texture dimensions.
	Width  int
	Height int

	// ScaleX and ScaleY are the presentation scale factors.
	ScaleX float64
	ScaleY float64

	// FreeScale reports zoom-to-fit.
	FreeScale bool

	// Placeholder reports that the image is the "no output" placeholder.
	Placeholder bool

	// Fence is the imported buffer whose fence is pending until the host
	// calls Session.FrameReleased. Nil for frames without a fence.
	Fence *display.Dmabuf
}

// Compositor receives presentation requests. Present is fire-and-forget:
// the compositor must copy or draw the texture before returning, because the
// texture may change with the next event.
type Compositor interface {
	Present(f Frame)
}

// CompositorFunc adapts a function to Compositor.
type CompositorFunc func(f Frame)

// Present calls fn(f).
func (fn CompositorFunc) Present(f Frame) { fn(f) }

// CursorPresenter is implemented by compositors that draw the pointer glyph.
type CursorPresenter interface {
	PresentCursor(console int, ctx glctx.Context, tex glctx.Texture, hotspot image.Point)
}

// PointerPresenter is implemented by compositors that position the pointer
// glyph.
type PointerPresenter interface {
	MovePointer(console int, x, y int, visible bool)
}

type discardCompositor struct{}

func (discardCompositor) Present(Frame) {}
