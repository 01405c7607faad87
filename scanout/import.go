// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scanout

import (
	"errors"
	"fmt"

	"github.com/gogpu/vconsole/display"
)

var (
	// ErrImport marks a failed shared-buffer import.
	ErrImport = errors.New("scanout: import failed")

	// ErrUnsupportedBuffer is returned for formats or modifiers the bridge
	// cannot read.
	ErrUnsupportedBuffer = errors.New("scanout: unsupported buffer")

	// ErrNotLeased is returned when releasing a handle with no live lease.
	ErrNotLeased = errors.New("scanout: handle is not leased")

	// ErrLeaseReleased is returned when a released lease is used.
	ErrLeaseReleased = errors.New("scanout: lease already released")
)

// Mapping is CPU access to an imported buffer.
type Mapping interface {
	// Pix returns the bytes of the whole backing buffer. The slice is valid
	// until Close.
	Pix() []byte

	// Close unmaps the buffer and drops the bridge's reference to it.
	Close() error
}

// Importer maps guest-exported buffers.
type Importer interface {
	Import(buf *display.Dmabuf) (Mapping, error)
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(buf *display.Dmabuf) (Mapping, error)

// Import calls f.
func (f ImporterFunc) Import(buf *display.Dmabuf) (Mapping, error) { return f(buf) }

// Validate checks that buf describes a buffer the bridge can read.
func Validate(buf *display.Dmabuf) error {
	if buf == nil {
		return fmt.Errorf("%w: nil handle", ErrUnsupportedBuffer)
	}
	if _, ok := buf.Format(); !ok {
		return fmt.Errorf("%w: fourcc %s", ErrUnsupportedBuffer, display.FourccString(buf.Fourcc))
	}
	if !buf.IsLinear() {
		return fmt.Errorf("%w: modifier %#x", ErrUnsupportedBuffer, buf.Modifier)
	}
	if buf.Width <= 0 || buf.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrUnsupportedBuffer, buf.Width, buf.Height)
	}
	bw, bh := buf.Backing()
	if buf.X < 0 || buf.Y < 0 || buf.X+buf.Width > bw || buf.Y+buf.Height > bh {
		return fmt.Errorf("%w: viewport %v outside %dx%d", ErrUnsupportedBuffer, buf.Viewport(), bw, bh)
	}
	if buf.Stride < bw*4 {
		return fmt.Errorf("%w: stride %d too small for width %d", ErrUnsupportedBuffer, buf.Stride, bw)
	}
	return nil
}

// MemoryMapping is a Mapping over a byte slice, for buffers that already
// live in process memory.
type MemoryMapping struct {
	pix     []byte
	closed  bool
	onClose func()
}

// NewMemoryMapping wraps pix. onClose, if set, runs on the first Close.
func NewMemoryMapping(pix []byte, onClose func()) *MemoryMapping {
	return &MemoryMapping{pix: pix, onClose: onClose}
}

// Pix implements Mapping.
func (m *MemoryMapping) Pix() []byte { return m.pix }

// Close implements Mapping.
func (m *MemoryMapping) Close() error {
	if m.closed {
		return ErrLeaseReleased
	}
	m.closed = true
	m.pix = nil
	if m.onClose != nil {
		m.onClose()
	}
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryMapping) Closed() bool { return m.closed }
