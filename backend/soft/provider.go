// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/vconsole/backend"
	"github.com/gogpu/vconsole/glctx"
)

func init() {
	backend.Register(backend.BackendSoft, func() (backend.Backend, error) {
		return &softBackend{p: New(DefaultOptions())}, nil
	})
}

type softBackend struct{ p *Provider }

func (b *softBackend) Name() string             { return backend.BackendSoft }
func (b *softBackend) Provider() glctx.Provider { return b.p }
func (b *softBackend) Close()                   {}

// Options configures a Provider.
type Options struct {
	// MaxTextureSize bounds each texture dimension. Zero means no limit.
	MaxTextureSize int

	// ValidateShaders compiles program sources with naga so that malformed
	// WGSL fails the same way it would on a GPU backend.
	ValidateShaders bool
}

// DefaultOptions returns the options used by the registered backend.
func DefaultOptions() Options {
	return Options{
		MaxTextureSize: 8192,
	}
}

// Provider creates software contexts. It is safe for concurrent use;
// contexts themselves are not.
type Provider struct {
	opts Options

	mu         sync.Mutex
	current    *Context
	live       int
	exports    map[uint32]*storage
	nextExport uint32
}

// New returns a Provider.
func New(opts Options) *Provider {
	return &Provider{
		opts:    opts,
		exports: make(map[uint32]*storage),
	}
}

// CreateContext implements glctx.Provider.
func (p *Provider) CreateContext(params glctx.Params) (glctx.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live++
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
		return fmt.Errorf("soft: foreign context %T", ctx)
	}
	if c.destroyed {
		return glctx.ErrContextDestroyed
	}
	p.mu.Lock()
	p.current = c
	p.mu.Unlock()
	return nil
}

// DestroyContext implements glctx.Provider.
func (p *Provider) DestroyContext(ctx glctx.Context) {
	c, ok := ctx.(*Context)
	if !ok || c.p != p || c.destroyed {
		return
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

// Export publishes a guest-rendered texture and returns its id. pix holds
// height rows of width*4 bytes in format and is copied.
func (p *Provider) Export(width, height int, format gputypes.TextureFormat, pix []byte) (uint32, error) {
	if err := (glctx.TextureDesc{Width: width, Height: height, Format: format}).Validate(); err != nil {
		return 0, err
	}
	st := newStorage(width, height, format)
	if err := st.write(st.bounds(), pix, width*4); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextExport++
	p.exports[p.nextExport] = st
	return p.nextExport, nil
}

// UpdateExport replaces the pixels of r in an exported texture.
func (p *Provider) UpdateExport(id uint32, r image.Rectangle, pix []byte, stride int) error {
	p.mu.Lock()
	st, ok := p.exports[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", glctx.ErrUnknownExport, id)
	}
	return st.write(r, pix, stride)
}

// Unexport withdraws an exported texture. Existing borrowed views keep
// their storage.
func (p *Provider) Unexport(id uint32) {
	p.mu.Lock()
	delete(p.exports, id)
	p.mu.Unlock()
}

func (p *Provider) export(id uint32) (*storage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.exports[id]
	return st, ok
}

func (p *Provider) isCurrent(c *Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == c
}

func (p *Provider) validateShader(wgsl string) error {
	if !p.opts.ValidateShaders {
		return nil
	}
	if _, err := naga.Compile(wgsl); err != nil {
		return fmt.Errorf("soft: compile shader: %w", err)
	}
	return nil
}
