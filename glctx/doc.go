// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glctx manages the GPU rendering context owned by each virtual
// console.
//
// A [Provider] is the platform's context factory. A [Manager] wraps one
// console's context: it creates the context lazily on the first
// [Manager.EnsureCurrent] call, makes it current before every GPU operation,
// and destroys it on teardown. Creation failure is terminal for that console.
//
// Backends live in backend/soft (pure Go, used in tests and the demo) and
// backend/native (gogpu/wgpu HAL).
package glctx
