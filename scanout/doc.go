// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package scanout holds the frame buffers a console renders through and the
// leases it takes on guest-exported buffers.
//
// A FrameBuffer is one of three kinds:
//
//   - Owned: a texture allocated and freed by the bridge (CPU surfaces,
//     window buffers, cursor glyphs).
//   - Borrowed: a view over a texture exported by the guest renderer. The
//     bridge never frees the exported texture.
//   - Imported: a shared buffer mapped under a Lease.
//
// Leases are tracked per console by a LeaseTable, which guarantees that each
// imported handle is given back exactly once.
package scanout
