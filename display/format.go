// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import "fmt"

// Format is a packed 32-bit pixel layout. Names follow the DRM convention:
// the channel order is given most significant byte first, so on a
// little-endian host XRGB8888 is stored in memory as B, G, R, X.
type Format uint8

const (
	// FormatXRGB8888 stores B, G, R, X bytes. The X byte is ignored.
	FormatXRGB8888 Format = iota

	// FormatARGB8888 stores B, G, R, A bytes.
	FormatARGB8888

	// FormatXBGR8888 stores R, G, B, X bytes. The X byte is ignored.
	FormatXBGR8888

	// FormatABGR8888 stores R, G, B, A bytes.
	FormatABGR8888
)

// DRM fourcc codes for the supported formats.
const (
	FourccXRGB8888 uint32 = 0x34325258 // XR24
	FourccARGB8888 uint32 = 0x34325241 // AR24
	FourccXBGR8888 uint32 = 0x34324258 // XB24
	FourccABGR8888 uint32 = 0x34324241 // AB24
)

// DRM format modifiers understood by the bridge.
const (
	// ModifierLinear is a plain row-major layout.
	ModifierLinear uint64 = 0

	// ModifierInvalid means the exporter did not supply a modifier.
	// It is treated as linear.
	ModifierInvalid uint64 = 0x00ffffffffffffff
)

// BytesPerPixel returns the pixel size. All supported formats are 4 bytes.
func (f Format) BytesPerPixel() int { return 4 }

// HasAlpha reports whether the fourth byte carries alpha.
func (f Format) HasAlpha() bool {
	return f == FormatARGB8888 || f == FormatABGR8888
}

// IsBGR reports whether the first byte in memory is blue.
func (f Format) IsBGR() bool {
	return f == FormatXRGB8888 || f == FormatARGB8888
}

// Fourcc returns the DRM fourcc code of the format.
func (f Format) Fourcc() uint32 {
	switch f {
	case FormatARGB8888:
		return FourccARGB8888
	case FormatXBGR8888:
		return FourccXBGR8888
	case FormatABGR8888:
		return FourccABGR8888
	default:
		return FourccXRGB8888
	}
}

// String returns the DRM-style format name.
func (f Format) String() string {
	switch f {
	case FormatXRGB8888:
		return "XRGB8888"
	case FormatARGB8888:
		return "ARGB8888"
	case FormatXBGR8888:
		return "XBGR8888"
	case FormatABGR8888:
		return "ABGR8888"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// FormatFromFourcc maps a DRM fourcc code to a Format.
func FormatFromFourcc(fourcc uint32) (Format, bool) {
	switch fourcc {
	case FourccXRGB8888:
		return FormatXRGB8888, true
	case FourccARGB8888:
		return FormatARGB8888, true
	case FourccXBGR8888:
		return FormatXBGR8888, true
	case FourccABGR8888:
		return FormatABGR8888, true
	}
	return 0, false
}

// FourccString renders a fourcc code as its four ASCII characters.
func FourccString(fourcc uint32) string {
	b := [4]byte{byte(fourcc), byte(fourcc >> 8), byte(fourcc >> 16), byte(fourcc >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b[:])
}
