// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package blit moves console pixels into textures.
//
// A Pipeline is created per rendering context. It uploads CPU surfaces into
// owned textures, batching updates into a dirty region that Flush uploads,
// and normalizes GPU scanout sources (borrowed textures and imported shared
// buffers) into the console's window frame buffer. The window frame buffer
// is always RGBA with row 0 at the top: sources that are bottom-up have
// their rows flipped during the blit.
package blit
