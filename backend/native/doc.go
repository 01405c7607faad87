// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements glctx.Provider on a gogpu/wgpu HAL device.
//
// Contexts are logical: every console gets its own Context, and all contexts
// share the provider's device and queue. Textures are created with copy and
// sampling usage so that scanout sources can be read back and normalized on
// the CPU. Blit programs are compiled from WGSL to SPIR-V with gogpu/naga.
//
// Guest renderers that draw on the same device publish their textures with
// Provider.ExportTexture; consoles borrow them by id.
//
// Importing the package registers the "native" backend, which opens a
// headless HAL device. Hosts that own a real device call New instead.
package native
