// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package display defines the guest-facing side of the console bridge.
//
// A guest display subsystem owns one [Source] per display output. It reports
// framebuffer changes to the bridge as [Event] values: CPU pixel updates,
// surface (mode) switches, GPU scanout hand-offs and shared-buffer imports.
// The bridge answers through the optional [Exporter] interface when it is
// done with an imported [Dmabuf].
//
// # Surfaces
//
// A [Surface] is a CPU framebuffer in one of the packed 32-bit [Format]
// layouts. [NewPlaceholderSurface] builds the "no real framebuffer" marker
// surface used when a display output is inactive.
//
// # Registration
//
// The bridge enumerates sources through [Subsystem].Source and, once all of
// them are known, hands each one a [Token] and a [Dispatcher] with
// [Subsystem].RegisterListener. The guest side passes the token back with
// every event so the bridge can route it to the right console.
//
// [StaticSubsystem] is a small in-process implementation used by tests and
// by the vcdemo command.
package display
