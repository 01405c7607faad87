// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vconsole/glctx"
)

// Options configures a Provider.
type Options struct {
	// Label prefixes the debug labels of every GPU object.
	Label string

	// ReadbackTimeout bounds the submission wait of each readback.
	ReadbackTimeout time.Duration

	// Logger receives diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions returns the default provider options.
func DefaultOptions() Options {
	return Options{
		Label:           "vconsole",
		ReadbackTimeout: 5 * time.Second,
	}
}

type export struct {
	tex    hal.Texture
	width  int
	height int
	format gputypes.TextureFormat
}

// Provider creates logical contexts on one HAL device.
type Provider struct {
	device hal.Device
	queue  hal.Queue
	opts   Options
	log    *slog.Logger

	mu         sync.Mutex
	current    *Context
	live       int
	exports    map[uint32]export
	nextExport uint32
}

// New returns a Provider over device and queue. The caller keeps ownership
// of both.
func New(device hal.Device, queue hal.Queue, opts Options) (*Provider, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if opts.ReadbackTimeout <= 0 {
		opts.ReadbackTimeout = DefaultOptions().ReadbackTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(discardHandler{})
	}
	return &Provider{
		device:  device,
		queue:   queue,
		opts:    opts,
		log:     log,
		exports: make(map[uint32]export),
	}, nil
}

// Device returns the HAL device.
func (p *Provider) Device() hal.Device { return p.device }

// Queue returns the HAL queue.
func (p *Provider) Queue() hal.Queue { return p.queue }

func (p *Provider) label(s string) string {
	if p.opts.Label == "" {
		return s
	}
	return p.opts.Label + "_" + s
}

// CreateContext implements glctx.Provider.
func (p *Provider) CreateContext(params glctx.Params) (glctx.Context, error) {
	p.mu.Lock()
	p.live++
	p.mu.Unlock()
	p.log.Debug("native: context created", "label", params.Label, "params", params.String())
	return &Context{
		p:        p,
		params:   params,
		textures: make(map[*Texture]struct{}),
		programs: make(map[*Program]struct{}),
	}, nil
}

// MakeCurrent implements glctx.Provider.
func (p *Provider) MakeCurrent(ctx glctx.Context) error {
	c, ok := ctx.(*Context)
	if !ok || c.p != p {
		return fmt.Errorf("%w: %T", ErrForeignContext, ctx)
	}
	if c.destroyed {
		return glctx.ErrContextDestroyed
	}
	p.mu.Lock()
	p.current = c
	p.mu.Unlock()
	return nil
}

// DestroyContext implements glctx.Provider. Resources the caller failed to
// free are released here so the device does not leak them.
func (p *Provider) DestroyContext(ctx glctx.Context) {
	c, ok := ctx.(*Context)
	if !ok || c.p != p || c.destroyed {
		return
	}
	if n := len(c.textures) + len(c.programs); n > 0 {
		p.log.Warn("native: context destroyed with live resources", "label", c.params.Label, "count", n)
		for t := range c.textures {
			c.destroyTexture(t)
		}
		for prog := range c.programs {
			c.destroyProgram(prog)
		}
	}
	c.destroyed = true
	p.mu.Lock()
	if p.current == c {
		p.current = nil
	}
	p.live--
	p.mu.Unlock()
}

// LiveContexts returns the number of contexts not yet destroyed.
func (p *Provider) LiveContexts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// ExportTexture publishes a texture rendered on the provider's device and
// returns the id consoles borrow it by. The exporter keeps ownership: the
// texture must outlive every borrowed view.
func (p *Provider) ExportTexture(tex hal.Texture, width, height int, format gputypes.TextureFormat) (uint32, error) {
	if err := (glctx.TextureDesc{Width: width, Height: height, Format: format}).Validate(); err != nil {
		return 0, err
	}
	if tex == nil {
		return 0, fmt.Errorf("%w: nil texture", glctx.ErrInvalidTexture)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextExport++
	p.exports[p.nextExport] = export{tex: tex, width: width, height: height, format: format}
	return p.nextExport, nil
}

// Unexport withdraws an exported texture.
func (p *Provider) Unexport(id uint32) {
	p.mu.Lock()
	delete(p.exports, id)
	p.mu.Unlock()
}

func (p *Provider) lookupExport(id uint32) (export, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.exports[id]
	return e, ok
}

func (p *Provider) isCurrent(c *Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == c
}
