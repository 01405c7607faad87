// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	_ "embed"
)

// Embedded WGSL shader sources.

//go:embed shaders/blit.wgsl
var blitShaderSource string

// ProgramName is the name the blit program is created under.
const ProgramName = "vconsole-blit"

// ShaderSource returns the WGSL source of the blit program.
func ShaderSource() string {
	return blitShaderSource
}
