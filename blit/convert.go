// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vconsole/display"
)

// TextureFormat returns the texture format a surface of format f uploads
// to. Memory byte order is preserved, so no swizzle is needed on upload.
func TextureFormat(f display.Format) gputypes.TextureFormat {
	if f.IsBGR() {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// PackRect copies r of s into a tight buffer. X-channel formats get their
// fourth byte forced to 0xff so the texture is opaque.
func PackRect(s *display.Surface, r image.Rectangle) []byte {
	w, h := r.Dx(), r.Dy()
	out := make([]byte, w*h*4)
	opaque := !s.Format.HasAlpha()
	for y := 0; y < h; y++ {
		row := out[y*w*4 : (y+1)*w*4]
		copy(row, s.Row(r.Min.Y+y, r.Min.X, r.Max.X))
		if opaque {
			forceOpaque(row)
		}
	}
	return out
}

// ToRGBA converts a row of pixels in place from the given memory order to
// RGBA. bgr swaps the first and third byte; opaque forces alpha to 0xff.
func ToRGBA(row []byte, bgr, opaque bool) {
	for i := 0; i+3 < len(row); i += 4 {
		if bgr {
			row[i], row[i+2] = row[i+2], row[i]
		}
		if opaque {
			row[i+3] = 0xff
		}
	}
}

// FlipRows reverses the order of h rows of stride bytes in place.
func FlipRows(pix []byte, stride, h int) {
	tmp := make([]byte, stride)
	for top, bot := 0, h-1; top < bot; top, bot = top+1, bot-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bot*stride : (bot+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

func forceOpaque(row []byte) {
	for i := 3; i < len(row); i += 4 {
		row[i] = 0xff
	}
}

// sourceRect maps a window rectangle to the source rectangle it is read
// from. vp is the source viewport; with flip, window row 0 is the last row
// of the viewport.
func sourceRect(dst, vp image.Rectangle, flip bool) image.Rectangle {
	h := vp.Dy()
	r := dst.Add(vp.Min)
	if flip {
		r.Min.Y = vp.Min.Y + h - dst.Max.Y
		r.Max.Y = vp.Min.Y + h - dst.Min.Y
	}
	return r
}
