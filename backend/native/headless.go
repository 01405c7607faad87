// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/vconsole/backend"
	"github.com/gogpu/vconsole/glctx"
)

func init() {
	backend.Register(backend.BackendNative, func() (backend.Backend, error) {
		h, err := OpenHeadless(DefaultOptions())
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// Headless is a Provider on a device opened from the headless HAL instance.
type Headless struct {
	p       *Provider
	cleanup func()
	closed  bool
}

// OpenHeadless opens the first adapter of the headless HAL instance.
func OpenHeadless(opts Options) (*Headless, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open adapter: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	p, err := New(openDev.Device, openDev.Queue, opts)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &Headless{p: p, cleanup: cleanup}, nil
}

// Name implements backend.Backend.
func (h *Headless) Name() string { return backend.BackendNative }

// Provider implements backend.Backend.
func (h *Headless) Provider() glctx.Provider { return h.p }

// HAL returns the concrete provider, for exporting guest textures.
func (h *Headless) HAL() *Provider { return h.p }

// Close destroys the device and the instance.
func (h *Headless) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.cleanup()
}
