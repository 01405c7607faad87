// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/internal/gltest"
)

type failingSubsystem struct {
	*display.StaticSubsystem
	failAt       int
	unregistered int
}

func (f *failingSubsystem) RegisterListener(src display.Source, tok display.Token, d display.Dispatcher) error {
	if src.Index() == f.failAt {
		return errors.New("listener table full")
	}
	return f.StaticSubsystem.RegisterListener(src, tok, d)
}

func (f *failingSubsystem) UnregisterListener(tok display.Token) {
	f.unregistered++
	f.StaticSubsystem.UnregisterListener(tok)
}

func TestRegistryLifecycle(t *testing.T) {
	sys := display.NewStaticSubsystem(
		display.NewStaticSource("vga", true),
		display.NewStaticSource("serial0", false),
		display.NewStaticSource("virtio-gpu.1", true),
	)
	s := New(gltest.New(), nil)

	if err := s.Register(); !errors.Is(err, ErrNotEnumerated) {
		t.Fatalf("Register before Enumerate: %v", err)
	}
	if err := s.Enumerate(sys); err != nil {
		t.Fatal(err)
	}
	if err := s.Enumerate(sys); !errors.Is(err, ErrAlreadyEnumerated) {
		t.Errorf("second Enumerate: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i, c := range s.All() {
		if c.Index() != i || !c.Token().IsZero() {
			t.Errorf("console %d: index %d token %v", i, c.Index(), c.Token())
		}
	}
	if c, _ := s.Lookup(1); c.IsGraphic() || c.Label() != "serial0" {
		t.Errorf("console 1 = %v", c)
	}
	if _, ok := s.Lookup(3); ok {
		t.Error("Lookup(3) found a console")
	}

	if err := s.Register(); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register: %v", err)
	}
	if err := s.Enumerate(sys); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Enumerate after Register: %v", err)
	}
	for i := 0; i < 3; i++ {
		tok, ok := sys.Token(i)
		c, found := s.ByToken(tok)
		if !ok || !found || c.Index() != i || c.Token() != tok {
			t.Errorf("token of source %d does not map back to console %d", i, i)
		}
	}

	s.DestroyAll()
	s.DestroyAll()
	if s.Len() != 0 {
		t.Errorf("Len() after DestroyAll = %d", s.Len())
	}
	for i := 0; i < 3; i++ {
		if _, ok := sys.Token(i); ok {
			t.Errorf("source %d still has a listener", i)
		}
	}
	if err := s.Enumerate(sys); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Enumerate after DestroyAll: %v", err)
	}
}

func TestRegisterFailureRollsBack(t *testing.T) {
	sys := &failingSubsystem{
		StaticSubsystem: display.NewStaticSubsystem(
			display.NewStaticSource("vga", true),
			display.NewStaticSource("virtio-gpu.1", true),
		),
		failAt: 1,
	}
	s := New(gltest.New(), nil)
	if err := s.Enumerate(sys); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(); err == nil {
		t.Fatal("Register succeeded")
	}
	if sys.unregistered != 1 {
		t.Errorf("unregistered %d listeners, want 1", sys.unregistered)
	}
	if _, ok := sys.Token(0); ok {
		t.Error("console 0 left registered")
	}
	if c, _ := s.Lookup(0); !c.Token().IsZero() {
		t.Error("console 0 kept its token")
	}
}

func TestCompatibleListener(t *testing.T) {
	f := newFixture(t, nil,
		display.NewStaticSource("vga", true),
		display.NewStaticSource("virtio-gpu.1", true),
	)
	tok0, _ := f.sys.Token(0)
	tok1, _ := f.sys.Token(1)

	tests := []struct {
		name string
		tok  display.Token
		want bool
	}{
		{"console 0", tok0, true},
		{"console 1", tok1, true},
		{"foreign", display.NewToken(), false},
		{"zero", display.Token{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.s.IsCompatibleListener(tt.tok); got != tt.want {
				t.Errorf("IsCompatibleListener = %v, want %v", got, tt.want)
			}
			err := f.s.Dispatch(tt.tok, display.Refresh{})
			if tt.want && err != nil {
				t.Errorf("Dispatch: %v", err)
			}
			if !tt.want && !errors.Is(err, ErrIncompatibleListener) {
				t.Errorf("Dispatch err = %v, want ErrIncompatibleListener", err)
			}
		})
	}

	// Events follow their token: console 1's token never reaches console 0.
	if err := f.s.Dispatch(tok1, display.GfxSwitch{Surface: surface(4, 4, 0)}); err != nil {
		t.Fatal(err)
	}
	if f.console(0).State() != StateUninitialized || f.console(1).State() != StateCPUSurface {
		t.Error("event leaked across consoles")
	}

	f.s.DestroyAll()
	if err := f.s.Dispatch(tok0, display.Refresh{}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Dispatch after DestroyAll: %v", err)
	}
	if f.s.IsCompatibleListener(tok0) {
		t.Error("destroyed console still compatible")
	}
}

func TestDestroyAllOrder(t *testing.T) {
	src := display.NewStaticSource("vga", true)
	f := newFixture(t, nil, src, display.NewStaticSource("virtio-gpu.1", true))

	f.mustEmit(0, display.GfxSwitch{Surface: surface(8, 8, 0)})
	buf := f.dmabuf(8, 8, true, true)
	f.mustEmit(0, display.ScanoutDmabuf{Buf: buf})
	f.mustEmit(0, display.CursorDefine{Cursor: &display.Cursor{Width: 1, Height: 1, Pix: make([]byte, 4)}})
	c0, c1 := f.console(0), f.console(1)
	f.s.Focus().SetKeyboard(c0)
	f.s.Focus().SetPointer(c1)

	from := len(f.rec.Ops())
	f.s.DestroyAll()

	if f.s.Focus().Keyboard() != nil || f.s.Focus().Pointer() != nil {
		t.Error("focus slots point at destroyed consoles")
	}
	if c0.State() != StateDestroyed || c1.State() != StateDestroyed {
		t.Errorf("states = %v, %v", c0.State(), c1.State())
	}
	if c0.LeaseCount() != 0 || f.closed[buf] != 1 {
		t.Errorf("lease not released: %d live, closed %d", c0.LeaseCount(), f.closed[buf])
	}
	if got := src.Released(); len(got) != 1 || got[0] != buf {
		t.Errorf("exporter releases = %v", got)
	}

	ops := opsFrom(f.rec, from, gltest.OpDestroyTexture, gltest.OpDestroyProgram, gltest.OpDestroyContext)
	if len(ops) == 0 || ops[len(ops)-1].Kind != gltest.OpDestroyContext {
		t.Fatalf("ops = %v, want context destroyed last", ops)
	}
	textures, programs := 0, 0
	for _, op := range ops[:len(ops)-1] {
		switch op.Kind {
		case gltest.OpDestroyTexture:
			textures++
		case gltest.OpDestroyProgram:
			programs++
		case gltest.OpDestroyContext:
			t.Errorf("context destroyed twice: %v", ops)
		}
	}
	if textures < 3 || programs == 0 {
		t.Errorf("context destroyed after %d textures and %d programs", textures, programs)
	}
	if n := f.rec.Soft().LiveContexts(); n != 0 {
		t.Errorf("live contexts = %d", n)
	}

	f.s.Focus().SetKeyboard(c0)
	if f.s.Focus().Keyboard() != nil {
		t.Error("destroyed console accepted focus")
	}
}

func TestZoom(t *testing.T) {
	tests := []struct {
		name  string
		apply func(c *Console)
		want  float64
		fit   bool
	}{
		{"default", func(*Console) {}, 1.0, false},
		{"zoom in", func(c *Console) { c.ZoomIn() }, 1.25, false},
		{"five zoom outs clamp", func(c *Console) {
			for i := 0; i < 5; i++ {
				c.ZoomOut()
			}
		}, DefaultMinScale, false},
		{"fit resets", func(c *Console) {
			c.ZoomIn()
			c.ZoomIn()
			c.SetZoomToFit(true)
		}, 1.0, true},
		{"zoom leaves fit", func(c *Console) {
			c.SetZoomToFit(true)
			c.ZoomOut()
		}, 0.75, false},
		{"set clamps", func(c *Console) { c.SetScale(0, -2) }, DefaultMinScale, false},
		{"NaN keeps scale", func(c *Console) { c.SetScale(math.NaN(), math.NaN()) }, 1.0, false},
		{"NaN then zoom outs", func(c *Console) {
			c.SetScale(math.NaN(), -1)
			for i := 0; i < 5; i++ {
				c.ZoomOut()
			}
		}, DefaultMinScale, false},
		{"infinities keep scale", func(c *Console) {
			c.ZoomIn()
			c.SetScale(math.Inf(1), math.Inf(-1))
		}, 1.25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, display.NewStaticSource("vga", true))
			c := f.console(0)
			tt.apply(c)
			x, y := c.Scale()
			if math.Abs(x-tt.want) > 1e-9 || math.Abs(y-tt.want) > 1e-9 {
				t.Errorf("Scale() = %v, %v, want %v", x, y, tt.want)
			}
			if !(x > 0 && y > 0) || math.IsInf(x, 0) || math.IsInf(y, 0) {
				t.Errorf("scale fell to %v, %v", x, y)
			}
			if c.ZoomToFit() != tt.fit {
				t.Errorf("ZoomToFit() = %v", c.ZoomToFit())
			}
		})
	}
}

func TestZoomOptionsAndCurrentConsole(t *testing.T) {
	f := newFixture(t, []Option{WithScaleStep(0.5), WithMinScale(0.5)},
		display.NewStaticSource("vga", true),
		display.NewStaticSource("virtio-gpu.1", true),
	)
	f.mustEmit(1, display.GfxSwitch{Surface: surface(4, 4, 0)})

	if err := f.s.ShowConsole(1); err != nil {
		t.Fatal(err)
	}
	if err := f.s.ShowConsole(2); !errors.Is(err, ErrNoConsole) {
		t.Errorf("ShowConsole(2) = %v", err)
	}
	f.s.ZoomIn()
	frame, _, _ := f.comp.last(1)
	if frame.ScaleX != 1.5 || frame.ScaleY != 1.5 {
		t.Errorf("frame scale = %v, %v, want 1.5", frame.ScaleX, frame.ScaleY)
	}
	for i := 0; i < 4; i++ {
		f.s.ZoomOut()
	}
	if x, _ := f.console(1).Scale(); x != 0.5 {
		t.Errorf("scale = %v, want floor 0.5", x)
	}
	if x, _ := f.console(0).Scale(); x != 1 {
		t.Errorf("console 0 scale changed to %v", x)
	}
	f.s.SetZoomToFit(true)
	if !f.console(1).ZoomToFit() {
		t.Error("zoom to fit not applied to current console")
	}
}

func TestTitles(t *testing.T) {
	var titles []string
	f := newFixture(t, []Option{
		WithName("guest0"),
		WithTitleFunc(func(s string) { titles = append(titles, s) }),
	},
		display.NewStaticSource("café", true),
		display.NewStaticSource("serial0", false),
	)
	c0, c1 := f.console(0), f.console(1)

	if c0.Label() != "caf\u00e9" {
		t.Errorf("label = %q, want NFC form", c0.Label())
	}

	tests := []struct {
		name    string
		setup   func()
		session string
		console string
		c       *Console
	}{
		{"idle", func() {}, "vconsole (guest0)", "vconsole (guest0): caf\u00e9", c0},
		{"keyboard", func() { f.s.Focus().SetKeyboard(c0) }, "vconsole (guest0)", "vconsole (guest0): caf\u00e9 +kbd", c0},
		{"pointer", func() { f.s.Focus().SetPointer(c0) },
			"vconsole (guest0) - Press Ctrl+Alt+G to release grab", "vconsole (guest0): caf\u00e9 +kbd +ptr", c0},
		{"paused", func() { f.s.SetPaused(true) },
			"vconsole (guest0) [Paused] - Press Ctrl+Alt+G to release grab", "vconsole (guest0): serial0", c1},
		{"released", func() {
			f.s.Focus().Forget(c0)
			f.s.SetPaused(false)
		}, "vconsole (guest0)", "vconsole (guest0): caf\u00e9", c0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			if got := f.s.Title(); got != tt.session {
				t.Errorf("Title() = %q, want %q", got, tt.session)
			}
			if got := f.s.ConsoleTitle(tt.c); got != tt.console {
				t.Errorf("ConsoleTitle() = %q, want %q", got, tt.console)
			}
		})
	}

	// keyboard, pointer, paused, forget, unpause
	if len(titles) != 5 {
		t.Errorf("title callback ran %d times, want 5: %q", len(titles), titles)
	}
}

func TestTitleWithoutName(t *testing.T) {
	s := New(gltest.New(), nil, WithProduct("QEMU"))
	if got := s.Title(); got != "QEMU" {
		t.Errorf("Title() = %q", got)
	}
}
