// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/scanout"
)

// Session is one running display session: the console registry, the focus
// router and the dispatcher the guest display subsystem delivers events to.
//
// A Session is not safe for concurrent use. Create it with New, then call
// Enumerate and Register during display startup and DestroyAll at exit.
type Session struct {
	*Registry

	provider glctx.Provider
	comp     Compositor
	opts     options
	log      *slog.Logger
	focus    FocusRouter

	current int
	paused  bool
}

var _ display.Dispatcher = (*Session)(nil)

// New creates a session that renders through p and presents to comp. A nil
// comp discards frames.
func New(p glctx.Provider, comp Compositor, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if comp == nil {
		comp = discardCompositor{}
	}
	s := &Session{
		provider: p,
		comp:     comp,
		opts:     o,
		log:      o.logger,
	}
	s.focus.onChange = s.titleChanged
	s.Registry = &Registry{
		byToken:    make(map[display.Token]*Console),
		create:     s.newConsole,
		dispatcher: s,
		focus:      &s.focus,
		log:        o.logger,
	}
	return s
}

func (s *Session) newConsole(index int, src display.Source) *Console {
	label := norm.NFC.String(src.Label())
	c := &Console{
		index:  index,
		label:  label,
		src:    src,
		comp:   s.comp,
		log:    s.log.With("console", index),
		scale:  newScale(s.opts.scaleStep, s.opts.minScale),
		y0Top:  true,
		leases: scanout.NewLeaseTable(s.opts.importer),
	}
	if src.IsGraphic() {
		params := s.opts.params
		params.Label = label
		c.gl = glctx.NewManager(s.provider, params, c.log)
	}
	return c
}

// Dispatch delivers ev to the console registered under tok. It implements
// display.Dispatcher.
//
// Every error is console-scoped and already logged: protocol violations and
// unimplemented events at Warn, resource failures at Error.
func (s *Session) Dispatch(tok display.Token, ev display.Event) error {
	if s.destroyed {
		return ErrDestroyed
	}
	c, ok := s.ByToken(tok)
	if !ok {
		err := fmt.Errorf("%w: token %s", ErrIncompatibleListener, tok)
		s.log.Warn("vconsole: event from unknown listener dropped", "event", eventKind(ev), "err", err)
		return err
	}
	err := c.handle(ev)
	s.report(c, ev, err)
	return err
}

func (s *Session) report(c *Console, ev display.Event, err error) {
	if err == nil {
		return
	}
	kind := eventKind(ev)
	var (
		perr *ProtocolError
		rerr *ResourceError
	)
	switch {
	case errors.As(err, &perr):
		c.log.Warn("vconsole: protocol violation", "event", kind, "state", c.state, "err", err)
	case errors.Is(err, ErrUnimplemented):
		c.log.Warn("vconsole: UNIMPLEMENTED event", "event", kind, "err", err)
	case errors.As(err, &rerr):
		c.log.Error("vconsole: rendering disabled", "event", kind, "op", rerr.Op, "err", err)
	default:
		c.log.Error("vconsole: event failed", "event", kind, "err", err)
	}
}

// IsCompatibleListener reports whether tok was issued by this session to
// one of its consoles.
func (s *Session) IsCompatibleListener(tok display.Token) bool {
	_, ok := s.ByToken(tok)
	return ok
}

// FrameReleased tells the session the host finished with the last frame
// presented for console index. A pending fence of an imported buffer is
// signaled to the exporter.
func (s *Session) FrameReleased(index int) error {
	c, ok := s.Lookup(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoConsole, index)
	}
	c.frameReleased()
	return nil
}

// Focus returns the focus router.
func (s *Session) Focus() *FocusRouter { return &s.focus }

// ShowConsole makes console n current and repaints it.
func (s *Session) ShowConsole(n int) error {
	c, ok := s.Lookup(n)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoConsole, n)
	}
	s.current = n
	if c.state != StateUninitialized {
		c.present()
	}
	return nil
}

// Current returns the console "show console" selected, console 0 by
// default.
func (s *Session) Current() (*Console, bool) {
	return s.Lookup(s.current)
}

// ZoomIn zooms the current console in.
func (s *Session) ZoomIn() {
	if c, ok := s.Current(); ok {
		c.ZoomIn()
	}
}

// ZoomOut zooms the current console out.
func (s *Session) ZoomOut() {
	if c, ok := s.Current(); ok {
		c.ZoomOut()
	}
}

// SetZoomToFit toggles zoom-to-fit on the current console.
func (s *Session) SetZoomToFit(free bool) {
	if c, ok := s.Current(); ok {
		c.SetZoomToFit(free)
	}
}

// SetPaused records whether the guest is paused, for the title.
func (s *Session) SetPaused(paused bool) {
	if s.paused == paused {
		return
	}
	s.paused = paused
	s.titleChanged()
}

// Paused reports the paused status.
func (s *Session) Paused() bool { return s.paused }

func (s *Session) prefix() string {
	if s.opts.name == "" {
		return s.opts.product
	}
	return fmt.Sprintf("%s (%s)", s.opts.product, norm.NFC.String(s.opts.name))
}

// Title returns the session window title, e.g.
// "vconsole (guest0) [Paused] - Press Ctrl+Alt+G to release grab".
func (s *Session) Title() string {
	var b strings.Builder
	b.WriteString(s.prefix())
	if s.paused {
		b.WriteString(" [Paused]")
	}
	if s.focus.Pointer() != nil {
		b.WriteString(" - Press Ctrl+Alt+G to release grab")
	}
	return b.String()
}

// ConsoleTitle returns the title of console c, e.g.
// "vconsole (guest0): VGA +kbd +ptr".
func (s *Session) ConsoleTitle(c *Console) string {
	var b strings.Builder
	b.WriteString(s.prefix())
	b.WriteString(": ")
	b.WriteString(c.label)
	if s.focus.Keyboard() == c {
		b.WriteString(" +kbd")
	}
	if s.focus.Pointer() == c {
		b.WriteString(" +ptr")
	}
	return b.String()
}

func (s *Session) titleChanged() {
	if s.opts.onTitle != nil {
		s.opts.onTitle(s.Title())
	}
}
