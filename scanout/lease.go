// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scanout

import (
	"fmt"

	"github.com/gogpu/vconsole/display"
)

// Lease is a usage lease on an imported shared buffer. It is released
// exactly once; after release the mapping is gone and the handle must not
// be read.
type Lease struct {
	handle   *display.Dmabuf
	mapping  Mapping
	released bool
	imports  int
}

// Handle returns the leased buffer handle.
func (l *Lease) Handle() *display.Dmabuf { return l.handle }

// Pix returns the mapped bytes of the backing buffer. It returns
// ErrLeaseReleased after release.
func (l *Lease) Pix() ([]byte, error) {
	if l.released {
		return nil, fmt.Errorf("%w: %v", ErrLeaseReleased, l.handle)
	}
	return l.mapping.Pix(), nil
}

// Released reports whether the lease was given back.
func (l *Lease) Released() bool { return l.released }

// Imports returns how many scanout imports used the lease.
func (l *Lease) Imports() int { return l.imports }

func (l *Lease) release() error {
	if l.released {
		return fmt.Errorf("%w: %v", ErrLeaseReleased, l.handle)
	}
	l.released = true
	m := l.mapping
	l.mapping = nil
	if m == nil {
		return nil
	}
	return m.Close()
}

// LeaseTable tracks the leases of one console. It is not safe for
// concurrent use.
type LeaseTable struct {
	importer Importer
	leases   map[*display.Dmabuf]*Lease
}

// NewLeaseTable returns a table that imports buffers through imp.
func NewLeaseTable(imp Importer) *LeaseTable {
	return &LeaseTable{importer: imp, leases: make(map[*display.Dmabuf]*Lease)}
}

// Acquire leases buf. Importing a handle that is still leased reuses the
// existing lease and reports reused.
func (t *LeaseTable) Acquire(buf *display.Dmabuf) (l *Lease, reused bool, err error) {
	if buf == nil {
		return nil, false, fmt.Errorf("%w: nil handle", ErrImport)
	}
	if l, ok := t.leases[buf]; ok {
		l.imports++
		return l, true, nil
	}
	if t.importer == nil {
		return nil, false, fmt.Errorf("%w: no importer", ErrImport)
	}
	m, err := t.importer.Import(buf)
	if err != nil {
		return nil, false, err
	}
	l = &Lease{handle: buf, mapping: m, imports: 1}
	t.leases[buf] = l
	return l, false, nil
}

// Lookup returns the live lease of buf.
func (t *LeaseTable) Lookup(buf *display.Dmabuf) (*Lease, bool) {
	l, ok := t.leases[buf]
	return l, ok
}

// Release gives back the lease of buf. It returns ErrNotLeased for a
// handle the table does not hold, which includes a second release of the
// same handle. A mapping close error is returned after the lease is
// dropped.
func (t *LeaseTable) Release(buf *display.Dmabuf) (*Lease, error) {
	l, ok := t.leases[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotLeased, buf)
	}
	delete(t.leases, buf)
	if err := l.release(); err != nil {
		return l, fmt.Errorf("scanout: release %v: %w", buf, err)
	}
	return l, nil
}

// ReleaseAll gives back every lease and returns the released handles.
func (t *LeaseTable) ReleaseAll() []*display.Dmabuf {
	out := make([]*display.Dmabuf, 0, len(t.leases))
	for buf, l := range t.leases {
		_ = l.release()
		out = append(out, buf)
	}
	clear(t.leases)
	return out
}

// Len returns the number of live leases.
func (t *LeaseTable) Len() int { return len(t.leases) }
