// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"fmt"
	"sync"
)

// Static subsystem errors.
var (
	// ErrUnknownSource is returned for a source that does not belong to the subsystem.
	ErrUnknownSource = errors.New("display: unknown source")

	// ErrNotRegistered is returned when emitting to a source with no listener.
	ErrNotRegistered = errors.New("display: no listener registered")
)

// StaticSource is a fixed display output that records exporter callbacks.
type StaticSource struct {
	index   int
	label   string
	graphic bool

	mu       sync.Mutex
	released []*Dmabuf
	signaled []*Dmabuf
}

// NewStaticSource creates a source. The index is assigned by the subsystem.
func NewStaticSource(label string, graphic bool) *StaticSource {
	return &StaticSource{label: label, graphic: graphic}
}

func (s *StaticSource) Index() int      { return s.index }
func (s *StaticSource) Label() string   { return s.label }
func (s *StaticSource) IsGraphic() bool { return s.graphic }

// DmabufReleased records a lease release.
func (s *StaticSource) DmabufReleased(d *Dmabuf) {
	s.mu.Lock()
	s.released = append(s.released, d)
	s.mu.Unlock()
}

// FenceSignaled records a fence signal.
func (s *StaticSource) FenceSignaled(d *Dmabuf) {
	s.mu.Lock()
	s.signaled = append(s.signaled, d)
	s.mu.Unlock()
}

// Released returns the buffers released so far, in order.
func (s *StaticSource) Released() []*Dmabuf {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Dmabuf(nil), s.released...)
}

// Signaled returns the buffers whose fence was signaled, in order.
func (s *StaticSource) Signaled() []*Dmabuf {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Dmabuf(nil), s.signaled...)
}

type staticListener struct {
	tok Token
	d   Dispatcher
}

// StaticSubsystem is an in-process Subsystem over a fixed list of sources.
// It is safe for concurrent use.
type StaticSubsystem struct {
	sources []*StaticSource

	mu        sync.Mutex
	listeners map[int]staticListener
}

// NewStaticSubsystem creates a subsystem and numbers the sources in order.
func NewStaticSubsystem(sources ...*StaticSource) *StaticSubsystem {
	for i, s := range sources {
		s.index = i
	}
	return &StaticSubsystem{
		sources:   sources,
		listeners: make(map[int]staticListener),
	}
}

// Source implements Subsystem.
func (s *StaticSubsystem) Source(index int) (Source, bool) {
	if index < 0 || index >= len(s.sources) {
		return nil, false
	}
	return s.sources[index], true
}

// StaticSource returns the concrete source at index, or nil.
func (s *StaticSubsystem) StaticSource(index int) *StaticSource {
	if index < 0 || index >= len(s.sources) {
		return nil
	}
	return s.sources[index]
}

// RegisterListener implements Subsystem.
func (s *StaticSubsystem) RegisterListener(src Source, tok Token, d Dispatcher) error {
	idx := src.Index()
	if idx < 0 || idx >= len(s.sources) || Source(s.sources[idx]) != src {
		return fmt.Errorf("%w: %q", ErrUnknownSource, src.Label())
	}
	s.mu.Lock()
	s.listeners[idx] = staticListener{tok: tok, d: d}
	s.mu.Unlock()
	return nil
}

// UnregisterListener implements Subsystem.
func (s *StaticSubsystem) UnregisterListener(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, l := range s.listeners {
		if l.tok == tok {
			delete(s.listeners, idx)
		}
	}
}

// Token returns the token registered for the source at index.
func (s *StaticSubsystem) Token(index int) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listeners[index]
	return l.tok, ok
}

// Emit delivers ev to the listener of the source at index.
func (s *StaticSubsystem) Emit(index int, ev Event) error {
	s.mu.Lock()
	l, ok := s.listeners[index]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: source %d", ErrNotRegistered, index)
	}
	return l.d.Dispatch(l.tok, ev)
}
