// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/vconsole/display"
)

// Registry holds the consoles of a session in enumeration order.
//
// Consoles are created by Enumerate and subscribed to their display sources
// by Register, once all sources are enumerated, so that console indices are
// stable before the guest sends its first event.
type Registry struct {
	sub        display.Subsystem
	consoles   []*Console
	byToken    map[display.Token]*Console
	registered bool
	destroyed  bool

	create     func(index int, src display.Source) *Console
	dispatcher display.Dispatcher
	focus      *FocusRouter
	log        *slog.Logger
}

// Enumerate creates one console per display source of sub, in index order.
func (r *Registry) Enumerate(sub display.Subsystem) error {
	switch {
	case r.destroyed:
		return ErrDestroyed
	case r.registered:
		return ErrAlreadyRegistered
	case r.sub != nil:
		return ErrAlreadyEnumerated
	}
	r.sub = sub
	for i := 0; ; i++ {
		src, ok := sub.Source(i)
		if !ok {
			break
		}
		r.consoles = append(r.consoles, r.create(i, src))
	}
	r.log.Debug("vconsole: display sources enumerated", "count", len(r.consoles))
	return nil
}

// Register subscribes every console to its display source and issues the
// tokens the guest passes back with each event. On failure no console stays
// registered.
func (r *Registry) Register() error {
	switch {
	case r.destroyed:
		return ErrDestroyed
	case r.sub == nil:
		return ErrNotEnumerated
	case r.registered:
		return ErrAlreadyRegistered
	}
	for _, c := range r.consoles {
		tok := display.NewToken()
		if err := r.sub.RegisterListener(c.src, tok, r.dispatcher); err != nil {
			r.unregister()
			return fmt.Errorf("vconsole: register console %d: %w", c.index, err)
		}
		c.tok = tok
		r.byToken[tok] = c
		r.log.Info("vconsole: console registered",
			"console", c.index, "label", c.label, "graphic", c.IsGraphic())
	}
	r.registered = true
	return nil
}

func (r *Registry) unregister() {
	for tok, c := range r.byToken {
		r.sub.UnregisterListener(tok)
		c.tok = display.Token{}
	}
	clear(r.byToken)
}

// Lookup returns the console at index.
func (r *Registry) Lookup(index int) (*Console, bool) {
	if index < 0 || index >= len(r.consoles) {
		return nil, false
	}
	return r.consoles[index], true
}

// ByToken returns the console registered under tok.
func (r *Registry) ByToken(tok display.Token) (*Console, bool) {
	c, ok := r.byToken[tok]
	return c, ok
}

// Len returns the number of consoles.
func (r *Registry) Len() int { return len(r.consoles) }

// All returns the consoles in index order.
func (r *Registry) All() []*Console {
	return append([]*Console(nil), r.consoles...)
}

// DestroyAll tears every console down at shutdown. Focus slots are cleared
// first, then each console frees its GPU resources, leases and context, and
// finally its registry entry and listener go. DestroyAll is idempotent.
func (r *Registry) DestroyAll() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for _, c := range r.consoles {
		r.focus.Forget(c)
		c.destroy()
		if !c.tok.IsZero() {
			delete(r.byToken, c.tok)
			r.sub.UnregisterListener(c.tok)
		}
	}
	r.consoles = nil
	r.registered = false
	r.log.Info("vconsole: all consoles destroyed")
}
