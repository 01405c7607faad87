//go:build !nogpu

package native

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vconsole/backend"
	"github.com/gogpu/vconsole/blit"
	"github.com/gogpu/vconsole/glctx"
)

func openHeadless(t *testing.T) *Headless {
	t.Helper()
	h, err := OpenHeadless(DefaultOptions())
	if err != nil {
		t.Fatalf("OpenHeadless: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func current(t *testing.T, p *Provider) *Context {
	t.Helper()
	ctx, err := p.CreateContext(glctx.Params{Major: 3, Minor: 3, Label: "test"})
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	if err := p.MakeCurrent(ctx); err != nil {
		t.Fatalf("MakeCurrent: %v", err)
	}
	return ctx.(*Context)
}

func TestNewNilDevice(t *testing.T) {
	if _, err := New(nil, nil, DefaultOptions()); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil) err = %v, want ErrNilDevice", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	h := openHeadless(t)
	c := current(t, h.HAL())

	tex, err := c.CreateTexture(glctx.TextureDesc{Label: "surface", Width: 64, Height: 48, Format: gputypes.TextureFormatBGRA8Unorm})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	nt := tex.(*Texture)
	if nt.Raw() == nil || nt.View() == nil {
		t.Fatal("texture has no HAL handles")
	}

	pix := make([]byte, 10*4*3)
	if err := c.WriteTexture(tex, image.Rect(2, 2, 12, 5), pix, 40); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	if err := c.WriteTexture(tex, image.Rect(60, 0, 70, 1), pix, 40); !errors.Is(err, glctx.ErrInvalidTexture) {
		t.Errorf("out of bounds write err = %v", err)
	}

	c.DestroyTexture(tex)
	c.DestroyTexture(tex)
	if c.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d", c.LiveTextures())
	}
	if _, err := c.ReadTexture(tex, image.Rect(0, 0, 1, 1)); !errors.Is(err, glctx.ErrInvalidTexture) {
		t.Errorf("read of destroyed texture err = %v", err)
	}
}

func TestReadTextureStripsPadding(t *testing.T) {
	h := openHeadless(t)
	c := current(t, h.HAL())

	// 10 pixels per row is 40 bytes, padded to 256 in the staging buffer.
	tex, err := c.CreateTexture(glctx.TextureDesc{Width: 10, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadTexture(tex, image.Rect(0, 0, 10, 4))
	if err != nil {
		t.Fatalf("ReadTexture: %v", err)
	}
	if len(got) != 10*4*4 {
		t.Errorf("read %d bytes, want %d", len(got), 10*4*4)
	}
	c.DestroyTexture(tex)
}

// stalledQueue never reports a submission as completed.
type stalledQueue struct{ hal.Queue }

func (stalledQueue) PollCompleted() uint64 { return 0 }

// mapCounter counts staging buffer mappings.
type mapCounter struct {
	hal.Device
	mapped, unmapped int
}

func (d *mapCounter) MapBuffer(b hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	d.mapped++
	return d.Device.MapBuffer(b, offset, size)
}

func (d *mapCounter) UnmapBuffer(b hal.Buffer) error {
	d.unmapped++
	return d.Device.UnmapBuffer(b)
}

func TestReadTextureWaitsForSubmission(t *testing.T) {
	h := openHeadless(t)
	dev, queue := h.HAL().Device(), h.HAL().Queue()

	tests := []struct {
		name    string
		queue   hal.Queue
		wantErr error
		mapped  int
	}{
		{"completed", queue, nil, 1},
		{"stalled", stalledQueue{queue}, ErrReadbackTimeout, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &mapCounter{Device: dev}
			p, err := New(counter, tt.queue, Options{ReadbackTimeout: 5 * time.Millisecond})
			if err != nil {
				t.Fatal(err)
			}
			c := current(t, p)
			tex, err := c.CreateTexture(glctx.TextureDesc{Width: 4, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm})
			if err != nil {
				t.Fatal(err)
			}
			defer c.DestroyTexture(tex)

			got, err := c.ReadTexture(tex, image.Rect(0, 0, 4, 2))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadTexture err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(got) != 4*4*2 {
				t.Errorf("read %d bytes", len(got))
			}
			if counter.mapped != tt.mapped || counter.unmapped != tt.mapped {
				t.Errorf("mapped %d, unmapped %d, want %d", counter.mapped, counter.unmapped, tt.mapped)
			}
		})
	}
}

func TestBorrowExportedTexture(t *testing.T) {
	h := openHeadless(t)
	p := h.HAL()
	c := current(t, p)

	guest, err := p.Device().CreateTexture(&hal.TextureDescriptor{
		Label:         "guest",
		Size:          hal.Extent3D{Width: 800, Height: 600, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         textureUsage,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Device().DestroyTexture(guest)

	id, err := p.ExportTexture(guest, 800, 600, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	view, err := c.BorrowTexture(id)
	if err != nil {
		t.Fatalf("BorrowTexture: %v", err)
	}
	nt := view.(*Texture)
	if !nt.Borrowed() || nt.Raw() != guest {
		t.Fatalf("view = %+v", nt)
	}
	c.DestroyTexture(view)
	if nt.Raw() != nil {
		t.Error("view still refers to the exported texture")
	}
	if _, ok := p.lookupExport(id); !ok {
		t.Error("destroying a view withdrew the export")
	}

	p.Unexport(id)
	if _, err := c.BorrowTexture(id); !errors.Is(err, glctx.ErrUnknownExport) {
		t.Errorf("BorrowTexture after Unexport err = %v", err)
	}
}

func TestBlitProgramCompiles(t *testing.T) {
	h := openHeadless(t)
	c := current(t, h.HAL())

	p, err := blit.New(c)
	if err != nil {
		t.Fatalf("blit.New: %v", err)
	}
	p.Close()
	if len(c.programs) != 0 {
		t.Errorf("%d programs left after Close", len(c.programs))
	}
}

func TestNotCurrent(t *testing.T) {
	h := openHeadless(t)
	a := current(t, h.HAL())
	_ = current(t, h.HAL())

	if _, err := a.CreateTexture(glctx.TextureDesc{Width: 1, Height: 1, Format: gputypes.TextureFormatRGBA8Unorm}); !errors.Is(err, glctx.ErrNotCurrent) {
		t.Errorf("err = %v, want ErrNotCurrent", err)
	}
}

func TestDestroyContextFreesLeftovers(t *testing.T) {
	h := openHeadless(t)
	p := h.HAL()
	c := current(t, p)
	if _, err := c.CreateTexture(glctx.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}); err != nil {
		t.Fatal(err)
	}
	p.DestroyContext(c)
	if c.LiveTextures() != 0 || p.LiveContexts() != 0 {
		t.Errorf("live textures %d, contexts %d", c.LiveTextures(), p.LiveContexts())
	}
	if err := p.MakeCurrent(c); !errors.Is(err, glctx.ErrContextDestroyed) {
		t.Errorf("MakeCurrent(destroyed) err = %v", err)
	}
}

func TestRegistered(t *testing.T) {
	b, err := backend.Get(backend.BackendNative)
	if err != nil {
		t.Fatalf("backend.Get: %v", err)
	}
	defer b.Close()
	if b.Name() != backend.BackendNative {
		t.Errorf("Name() = %q", b.Name())
	}
}
