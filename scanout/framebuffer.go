// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scanout

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
)

// Kind is the ownership variant of a FrameBuffer.
type Kind uint8

const (
	// KindOwned is a texture allocated by the bridge.
	KindOwned Kind = iota

	// KindBorrowed is a view over a guest-exported texture.
	KindBorrowed

	// KindImported is a shared buffer held under a lease.
	KindImported
)

func (k Kind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindBorrowed:
		return "borrowed"
	case KindImported:
		return "imported"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// FrameBuffer is a render source or target of a console.
type FrameBuffer struct {
	kind     Kind
	tex      glctx.Texture
	lease    *Lease
	viewport image.Rectangle
	y0Top    bool
	id       uint32
	dirty    image.Rectangle
	released bool
}

// NewOwned wraps a texture the bridge allocated.
func NewOwned(tex glctx.Texture) *FrameBuffer {
	return &FrameBuffer{
		kind:     KindOwned,
		tex:      tex,
		viewport: image.Rect(0, 0, tex.Width(), tex.Height()),
		y0Top:    true,
	}
}

// NewBorrowed wraps a view over the texture exported under id. viewport is
// the visible region within the texture; an empty viewport means the whole
// texture.
func NewBorrowed(view glctx.Texture, id uint32, viewport image.Rectangle, y0Top bool) *FrameBuffer {
	full := image.Rect(0, 0, view.Width(), view.Height())
	if viewport.Empty() {
		viewport = full
	} else {
		viewport = viewport.Intersect(full)
	}
	return &FrameBuffer{
		kind:     KindBorrowed,
		tex:      view,
		id:       id,
		viewport: viewport,
		y0Top:    y0Top,
	}
}

// NewImported wraps a leased shared buffer.
func NewImported(l *Lease) *FrameBuffer {
	buf := l.Handle()
	return &FrameBuffer{
		kind:     KindImported,
		lease:    l,
		viewport: buf.Viewport(),
		y0Top:    buf.Y0Top,
	}
}

// Kind returns the ownership variant.
func (fb *FrameBuffer) Kind() Kind { return fb.kind }

// Texture returns the backing texture of an owned or borrowed frame buffer.
func (fb *FrameBuffer) Texture() glctx.Texture { return fb.tex }

// Format returns the texture format, or the upload format of an imported
// buffer.
func (fb *FrameBuffer) Format() gputypes.TextureFormat {
	if fb.tex != nil {
		return fb.tex.Format()
	}
	if fb.lease != nil {
		if f, ok := fb.lease.Handle().Format(); ok && !f.IsBGR() {
			return gputypes.TextureFormatRGBA8Unorm
		}
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatUndefined
}

// Viewport returns the visible region within the source.
func (fb *FrameBuffer) Viewport() image.Rectangle { return fb.viewport }

// Size returns the visible width and height.
func (fb *FrameBuffer) Size() (width, height int) {
	return fb.viewport.Dx(), fb.viewport.Dy()
}

// Y0Top reports whether row 0 of the source is the top of the image.
func (fb *FrameBuffer) Y0Top() bool { return fb.y0Top }

// ExportID returns the exported texture id of a borrowed frame buffer.
func (fb *FrameBuffer) ExportID() uint32 { return fb.id }

// Lease returns the lease of an imported frame buffer. It is nil once the
// frame buffer was detached.
func (fb *FrameBuffer) Lease() *Lease { return fb.lease }

// Handle returns the imported buffer handle, or nil.
func (fb *FrameBuffer) Handle() *display.Dmabuf {
	if fb.lease == nil {
		return nil
	}
	return fb.lease.Handle()
}

// Attached reports whether an imported frame buffer still refers to its
// handle. Owned and borrowed frame buffers are attached until released.
func (fb *FrameBuffer) Attached() bool {
	if fb.released {
		return false
	}
	if fb.kind == KindImported {
		return fb.lease != nil && !fb.lease.Released()
	}
	return true
}

// Detach drops the reference to the imported handle. The frame buffer can
// no longer be read.
func (fb *FrameBuffer) Detach() {
	fb.lease = nil
}

// MarkDirty unions r into the pending upload region.
func (fb *FrameBuffer) MarkDirty(r image.Rectangle) {
	if r.Empty() {
		return
	}
	fb.dirty = fb.dirty.Union(r)
}

// Dirty returns the pending upload region.
func (fb *FrameBuffer) Dirty() image.Rectangle { return fb.dirty }

// TakeDirty returns and clears the pending upload region.
func (fb *FrameBuffer) TakeDirty() image.Rectangle {
	r := fb.dirty
	fb.dirty = image.Rectangle{}
	return r
}

// Release frees the GPU resources of fb in ctx. Owned textures are
// destroyed; borrowed views are released without touching the exported
// texture; imported buffers are detached and their lease is left to the
// LeaseTable. Release is a no-op on a released frame buffer.
//
// With a nil ctx the texture cannot be destroyed and is returned instead;
// the caller must destroy it once a context is current.
func (fb *FrameBuffer) Release(ctx glctx.Context) (pending glctx.Texture) {
	if fb == nil || fb.released {
		return nil
	}
	fb.released = true
	switch fb.kind {
	case KindOwned, KindBorrowed:
		if fb.tex != nil {
			if ctx != nil {
				ctx.DestroyTexture(fb.tex)
			} else {
				pending = fb.tex
			}
		}
		fb.tex = nil
	case KindImported:
		fb.lease = nil
	}
	fb.dirty = image.Rectangle{}
	return pending
}

// Released reports whether Release was called.
func (fb *FrameBuffer) Released() bool { return fb.released }

func (fb *FrameBuffer) String() string {
	w, h := fb.Size()
	return fmt.Sprintf("%s %dx%d y0top=%v", fb.kind, w, h, fb.y0Top)
}
