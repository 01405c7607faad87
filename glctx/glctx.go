// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glctx

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// Profile selects the context API flavour requested from the platform.
type Profile uint8

const (
	// ProfileCore requests a desktop core profile.
	ProfileCore Profile = iota

	// ProfileES requests an embedded-systems profile.
	ProfileES
)

func (p Profile) String() string {
	switch p {
	case ProfileCore:
		return "core"
	case ProfileES:
		return "es"
	default:
		return fmt.Sprintf("Profile(%d)", uint8(p))
	}
}

// Params are the context creation parameters passed to a Provider.
type Params struct {
	// Major and Minor are the requested API version.
	Major int
	Minor int

	// Profile is the requested profile.
	Profile Profile

	// Label names the context in logs and backend debug labels.
	Label string
}

// DefaultParams returns the parameters used when a console does not override
// them.
func DefaultParams() Params {
	return Params{
		Major:   3,
		Minor:   3,
		Profile: ProfileCore,
	}
}

func (p Params) String() string {
	return fmt.Sprintf("%d.%d %s", p.Major, p.Minor, p.Profile)
}

// TextureDesc describes a texture to allocate.
type TextureDesc struct {
	Label  string
	Width  int
	Height int

	// Format is either gputypes.TextureFormatRGBA8Unorm or
	// gputypes.TextureFormatBGRA8Unorm.
	Format gputypes.TextureFormat
}

// Validate checks the descriptor.
func (d TextureDesc) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTexture, d.Width, d.Height)
	}
	if !SupportedFormat(d.Format) {
		return fmt.Errorf("%w: format %v", ErrInvalidTexture, d.Format)
	}
	return nil
}

// SupportedFormat reports whether backends accept f for console textures.
func SupportedFormat(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatRGBA8Unorm || f == gputypes.TextureFormatBGRA8Unorm
}

// Texture is a 2D texture owned by a Context. Borrowed textures are views
// over another owner's storage.
type Texture interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
}

// Program is a compiled shader program.
type Program interface {
	Name() string
}

// Context is one GPU rendering context. Its methods are valid only while the
// context is current.
type Context interface {
	// CreateTexture allocates a texture.
	CreateTexture(desc TextureDesc) (Texture, error)

	// DestroyTexture frees t. For a borrowed texture only the view is
	// released; the exported storage is untouched.
	DestroyTexture(t Texture)

	// WriteTexture uploads rows of pix covering r of t. Row i of pix starts
	// at i*stride and holds r.Dx() pixels in t's format.
	WriteTexture(t Texture, r image.Rectangle, pix []byte, stride int) error

	// ReadTexture returns the pixels of r in t's format with a tight stride.
	ReadTexture(t Texture, r image.Rectangle) ([]byte, error)

	// BorrowTexture returns a view of the texture exported under id by a
	// guest renderer. It fails when no such texture exists.
	BorrowTexture(id uint32) (Texture, error)

	// CreateProgram compiles a WGSL program.
	CreateProgram(name, wgsl string) (Program, error)

	// DestroyProgram frees p.
	DestroyProgram(p Program)
}

// Provider is the platform service that creates rendering contexts.
type Provider interface {
	// CreateContext creates a new context. It may block.
	CreateContext(params Params) (Context, error)

	// MakeCurrent binds ctx to the calling thread.
	MakeCurrent(ctx Context) error

	// DestroyContext releases ctx. Callers free every resource created in
	// ctx before calling it.
	DestroyContext(ctx Context)
}
