// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vconsole/glctx"
)

// copyPitchAlignment is the row pitch alignment WebGPU requires for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// pollInterval is the sleep between submission polls while a readback waits.
const pollInterval = 100 * time.Microsecond

// ReadTexture implements glctx.Context. It copies r into a staging buffer,
// waits for the GPU and strips the row padding.
func (c *Context) ReadTexture(t glctx.Texture, r image.Rectangle) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	nt, err := c.own(t)
	if err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, nt.width, nt.height)
	if r.Empty() || !r.In(bounds) {
		return nil, fmt.Errorf("%w: read rect %v outside %v", glctx.ErrInvalidTexture, r, bounds)
	}

	w, h := uint32(r.Dx()), uint32(r.Dy())
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	device, queue := c.p.device, c.p.queue
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: c.p.label("readback_staging"),
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: c.p.label("readback_encoder"),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}

	encoder.CopyTextureToBuffer(nt.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase: hal.ImageCopyTexture{
			Texture:  nt.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y), Z: 0},
		},
		Size: hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	idx, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, fmt.Errorf("native: submit: %w", err)
	}
	if err := c.waitSubmission(idx); err != nil {
		return nil, err
	}

	mapping, err := device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("native: map staging buffer: %w", err)
	}
	readback := make([]byte, stagingSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), stagingSize))
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("native: unmap staging buffer: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback, nil
	}
	tight := make([]byte, uint64(bytesPerRow)*uint64(h))
	for row := uint32(0); row < h; row++ {
		src := row * alignedBytesPerRow
		dst := row * bytesPerRow
		copy(tight[dst:dst+bytesPerRow], readback[src:src+bytesPerRow])
	}
	return tight, nil
}

// waitSubmission blocks until the queue completed submission idx or the
// readback timeout passed.
func (c *Context) waitSubmission(idx uint64) error {
	deadline := time.Now().Add(c.p.opts.ReadbackTimeout)
	for c.p.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrReadbackTimeout, idx)
		}
		time.Sleep(pollInterval)
	}
	return nil
}
