// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "github.com/google/uuid"

// Source is one guest display output. The guest display subsystem owns it.
type Source interface {
	// Index is the stable enumeration position of the output.
	Index() int

	// Label is a human-readable name for the output.
	Label() string

	// IsGraphic reports whether the output is a graphical head rather than
	// a text console. Only graphic outputs receive a GPU context.
	IsGraphic() bool
}

// Exporter is implemented by sources whose guest renderer exports shared
// buffers. The bridge calls it from the dispatching goroutine.
type Exporter interface {
	// DmabufReleased reports that the bridge gave up its lease on d.
	// The exporter may reclaim or reuse the buffer.
	DmabufReleased(d *Dmabuf)

	// FenceSignaled reports that the host finished reading the frame
	// imported from d, for buffers with AllowFences set.
	FenceSignaled(d *Dmabuf)
}

// Token identifies one console registration. The bridge issues it at
// registration time and the guest passes it back with each event.
type Token struct {
	id uuid.UUID
}

// NewToken returns a fresh random token.
func NewToken() Token {
	return Token{id: uuid.New()}
}

// IsZero reports whether t was never issued.
func (t Token) IsZero() bool {
	return t.id == uuid.Nil
}

func (t Token) String() string {
	return t.id.String()
}

// Dispatcher receives display events on behalf of registered consoles.
type Dispatcher interface {
	// Dispatch delivers ev for the console registered under tok.
	Dispatch(tok Token, ev Event) error
}

// Subsystem is the guest display subsystem as seen by the bridge.
type Subsystem interface {
	// Source returns the output at index, or false past the last one.
	Source(index int) (Source, bool)

	// RegisterListener subscribes d to events of src under tok.
	RegisterListener(src Source, tok Token, d Dispatcher) error

	// UnregisterListener removes the subscription made under tok.
	UnregisterListener(tok Token)
}
