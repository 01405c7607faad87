// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vconsole"
	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/internal/gltest"
)

// nullProvider implements gpucontext.DeviceProvider without a device.
type nullProvider struct{}

func (nullProvider) Device() gpucontext.Device             { return nil }
func (nullProvider) Queue() gpucontext.Queue               { return nil }
func (nullProvider) Adapter() gpucontext.Adapter           { return nil }
func (nullProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

var _ gpucontext.DeviceProvider = nullProvider{}

// newSession wires a session over a recording provider to comp.
func newSession(t *testing.T, comp vconsole.Compositor, sources ...*display.StaticSource) (*vconsole.Session, *display.StaticSubsystem) {
	t.Helper()
	sys := display.NewStaticSubsystem(sources...)
	s := vconsole.New(gltest.New(), comp)
	if err := s.Enumerate(sys); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := s.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(s.DestroyAll)
	return s, sys
}

func emit(t *testing.T, sys *display.StaticSubsystem, index int, ev display.Event) {
	t.Helper()
	if err := sys.Emit(index, ev); err != nil {
		t.Fatalf("%s: %v", ev.Kind(), err)
	}
}

// pattern builds a w x h XBGR surface whose pixel (x, y) is (x, y, 0x80).
func pattern(w, h int) *display.Surface {
	s := display.NewSurface(w, h, display.FormatXBGR8888)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(s.Pix[y*s.Stride+x*4:], []byte{byte(x), byte(y), 0x80, 0})
		}
	}
	return s
}

func TestNewHostCanvas(t *testing.T) {
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  error
	}{
		{"valid provider", nullProvider{}, nil},
		{"nil provider", nil, ErrNilProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHostCanvas(tt.provider, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewHostCanvas() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if c.Provider() == nil {
				t.Error("Provider() = nil")
			}
		})
	}
}

func TestHostCanvasClose(t *testing.T) {
	c, err := NewHostCanvas(nullProvider{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// No image yet: nothing to draw, the draw context is never touched.
	if err := c.RenderTo(nil, 0); err != nil {
		t.Errorf("RenderTo() without image error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if c.Provider() != nil {
		t.Error("Provider() after close should return nil")
	}
	if err := c.RenderTo(nil, 0); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("RenderTo() on closed canvas error = %v, want %v", err, ErrCanvasClosed)
	}
}

func TestSnapshotSurface(t *testing.T) {
	snap := NewSnapshot(nil)
	_, sys := newSession(t, snap, display.NewStaticSource("vga", true))

	if _, ok := snap.Image(0); ok {
		t.Fatal("image before the first frame")
	}
	emit(t, sys, 0, display.GfxSwitch{Surface: pattern(4, 3)})

	img, ok := snap.Image(0)
	if !ok {
		t.Fatal("no image after GfxSwitch")
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds = %v", got)
	}
	if got, want := img.RGBAAt(1, 2), (color.RGBA{1, 2, 0x80, 0xff}); got != want {
		t.Errorf("pixel (1,2) = %v, want %v", got, want)
	}
	if snap.Label(0) != "vga" {
		t.Errorf("Label(0) = %q", snap.Label(0))
	}
	if got := snap.Consoles(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Consoles() = %v", got)
	}
}

func TestSnapshotScale(t *testing.T) {
	snap := NewSnapshot(nil)
	s, sys := newSession(t, snap, display.NewStaticSource("vga", true))
	emit(t, sys, 0, display.GfxSwitch{Surface: pattern(4, 3)})
	c, _ := s.Lookup(0)

	tests := []struct {
		name  string
		apply func()
		want  image.Rectangle
	}{
		{"double", func() { c.SetScale(2, 2) }, image.Rect(0, 0, 8, 6)},
		{"zoom out", func() { c.ZoomOut() }, image.Rect(0, 0, 7, 5)},
		{"fit", func() { c.SetZoomToFit(true) }, image.Rect(0, 0, 4, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.apply()
			img, ok := snap.Image(0)
			if !ok {
				t.Fatal("no image")
			}
			if img.Bounds() != tt.want {
				t.Errorf("bounds = %v, want %v", img.Bounds(), tt.want)
			}
		})
	}
}

func TestSnapshotCursor(t *testing.T) {
	snap := NewSnapshot(nil)
	_, sys := newSession(t, snap, display.NewStaticSource("vga", true))
	emit(t, sys, 0, display.GfxSwitch{Surface: pattern(4, 3)})

	// One opaque red pixel in B, G, R, A order.
	emit(t, sys, 0, display.CursorDefine{Cursor: &display.Cursor{Width: 1, Height: 1, Pix: []byte{0, 0, 0xff, 0xff}}})
	emit(t, sys, 0, display.MouseSet{X: 2, Y: 1, Visible: true})

	img, _ := snap.Image(0)
	if got, want := img.RGBAAt(2, 1), (color.RGBA{0xff, 0, 0, 0xff}); got != want {
		t.Errorf("cursor pixel = %v, want %v", got, want)
	}
	if got, want := img.RGBAAt(1, 1), (color.RGBA{1, 1, 0x80, 0xff}); got != want {
		t.Errorf("neighbour pixel = %v, want %v", got, want)
	}

	emit(t, sys, 0, display.MouseSet{X: 2, Y: 1, Visible: false})
	img, _ = snap.Image(0)
	if got, want := img.RGBAAt(2, 1), (color.RGBA{2, 1, 0x80, 0xff}); got != want {
		t.Errorf("hidden cursor pixel = %v, want %v", got, want)
	}
}

func TestSnapshotPlaceholderOnSecondary(t *testing.T) {
	snap := NewSnapshot(nil)
	_, sys := newSession(t, snap,
		display.NewStaticSource("vga", true),
		display.NewStaticSource("virtio-gpu.1", true),
	)
	emit(t, sys, 1, display.GfxSwitch{Surface: pattern(4, 3)})
	if _, ok := snap.Image(1); !ok {
		t.Fatal("no image for console 1")
	}
	emit(t, sys, 1, display.GfxSwitch{Surface: display.NewPlaceholderSurface(64, 16, display.PlaceholderMessage)})
	if _, ok := snap.Image(1); ok {
		t.Error("placeholder on a secondary console still shows an image")
	}
}

func TestHostCanvasIsCompositor(t *testing.T) {
	c, err := NewHostCanvas(nullProvider{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	_, sys := newSession(t, c, display.NewStaticSource("vga", true))
	emit(t, sys, 0, display.GfxSwitch{Surface: pattern(2, 2)})
	if _, ok := c.Image(0); !ok {
		t.Error("canvas did not keep the presented frame")
	}
}
