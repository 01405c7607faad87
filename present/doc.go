// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present provides host-side compositors for vconsole sessions.
//
// Snapshot keeps a CPU copy of the latest frame of each console, scaled by
// the console's presentation scale and with the pointer glyph composed on
// top. It is what cmd/vcdemo writes to PNG files.
//
// HostCanvas forwards snapshots to a gpucontext host such as a gogpu
// window. Textures are created lazily during RenderTo, when the host's
// texture creator is available:
//
//	canvas, err := present.NewHostCanvas(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	session := vconsole.New(provider, canvas)
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer(), 0)
//	})
package present
