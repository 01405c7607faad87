// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements glctx.Provider with textures held in Go memory.
//
// Every operation is pixel exact, which makes this backend the reference
// for orientation and format tests. It also stands in for a guest GPU
// renderer: Export publishes a texture that consoles can borrow by id.
//
// Importing the package registers the "soft" backend:
//
//	import _ "github.com/gogpu/vconsole/backend/soft"
package soft
