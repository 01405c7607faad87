// Package gltest provides a recording glctx.Provider for tests.
//
// The Recorder forwards every call to a software provider and appends an Op
// to an ordered log, so tests can check both pixels and call order.
package gltest

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/gogpu/vconsole/backend/soft"
	"github.com/gogpu/vconsole/glctx"
)

// Op kinds.
const (
	OpCreateContext  = "create-context"
	OpMakeCurrent    = "make-current"
	OpDestroyContext = "destroy-context"
	OpCreateTexture  = "create-texture"
	OpDestroyTexture = "destroy-texture"
	OpWriteTexture   = "write-texture"
	OpReadTexture    = "read-texture"
	OpBorrowTexture  = "borrow-texture"
	OpCreateProgram  = "create-program"
	OpDestroyProgram = "destroy-program"
)

// Op is one recorded call.
type Op struct {
	Kind string

	// Context is the 1-based id of the context, in creation order.
	Context int

	// Texture is the 1-based id of the texture, in creation order.
	// Zero for calls that do not involve a texture.
	Texture int

	// Detail carries the size, rectangle or program name.
	Detail string
}

func (o Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ctx%d", o.Kind, o.Context)
	if o.Texture != 0 {
		fmt.Fprintf(&b, " tex%d", o.Texture)
	}
	if o.Detail != "" {
		b.WriteString(" " + o.Detail)
	}
	return b.String()
}

// Recorder is a glctx.Provider that logs every call.
type Recorder struct {
	// FailCreate makes CreateContext fail with the given error.
	FailCreate error

	// FailMakeCurrent makes MakeCurrent fail with the given error.
	FailMakeCurrent error

	// FailTexture makes CreateTexture and BorrowTexture fail with the
	// given error.
	FailTexture error

	soft *soft.Provider

	mu       sync.Mutex
	ops      []Op
	nextCtx  int
	nextTex  int
	textures map[glctx.Texture]int
}

// New returns a Recorder over a fresh software provider.
func New() *Recorder {
	return &Recorder{
		soft:     soft.New(soft.DefaultOptions()),
		textures: make(map[glctx.Texture]int),
	}
}

// Soft returns the underlying provider, for exporting guest textures.
func (r *Recorder) Soft() *soft.Provider { return r.soft }

func (r *Recorder) record(op Op) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

// Ops returns a copy of the log.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Kinds returns the kinds of the logged ops, optionally filtered to the
// given kinds.
func (r *Recorder) Kinds(only ...string) []string {
	var out []string
	for _, op := range r.Ops() {
		if len(only) == 0 || contains(only, op.Kind) {
			out = append(out, op.Kind)
		}
	}
	return out
}

// Count returns how many ops of kind were logged.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops() {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Index returns the position of the first op matching kind at or after
// from, or -1.
func (r *Recorder) Index(kind string, from int) int {
	ops := r.Ops()
	for i := from; i < len(ops); i++ {
		if ops[i].Kind == kind {
			return i
		}
	}
	return -1
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

// TextureID returns the id assigned to t, or zero.
func (r *Recorder) TextureID(t glctx.Texture) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.textures[t]
}

func (r *Recorder) newTex(t glctx.Texture) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTex++
	r.textures[t] = r.nextTex
	return r.nextTex
}

// CreateContext implements glctx.Provider.
func (r *Recorder) CreateContext(params glctx.Params) (glctx.Context, error) {
	r.mu.Lock()
	r.nextCtx++
	id := r.nextCtx
	r.mu.Unlock()

	r.record(Op{Kind: OpCreateContext, Context: id, Detail: params.Label})
	if r.FailCreate != nil {
		return nil, r.FailCreate
	}
	inner, err := r.soft.CreateContext(params)
	if err != nil {
		return nil, err
	}
	return &Context{r: r, id: id, inner: inner.(*soft.Context)}, nil
}

// MakeCurrent implements glctx.Provider.
func (r *Recorder) MakeCurrent(ctx glctx.Context) error {
	c, ok := ctx.(*Context)
	if !ok {
		return fmt.Errorf("gltest: foreign context %T", ctx)
	}
	r.record(Op{Kind: OpMakeCurrent, Context: c.id})
	if r.FailMakeCurrent != nil {
		return r.FailMakeCurrent
	}
	return r.soft.MakeCurrent(c.inner)
}

// DestroyContext implements glctx.Provider.
func (r *Recorder) DestroyContext(ctx glctx.Context) {
	c, ok := ctx.(*Context)
	if !ok {
		return
	}
	r.record(Op{Kind: OpDestroyContext, Context: c.id})
	r.soft.DestroyContext(c.inner)
}

// Context is a recording context.
type Context struct {
	r     *Recorder
	id    int
	inner *soft.Context
}

// ID returns the 1-based creation index of the context.
func (c *Context) ID() int { return c.id }

// LiveTextures returns the number of textures and views not yet destroyed.
func (c *Context) LiveTextures() int { return c.inner.LiveTextures() }

// LivePrograms returns the number of programs not yet destroyed.
func (c *Context) LivePrograms() int { return c.inner.LivePrograms() }

// CreateTexture implements glctx.Context.
func (c *Context) CreateTexture(desc glctx.TextureDesc) (glctx.Texture, error) {
	if c.r.FailTexture != nil {
		c.r.record(Op{Kind: OpCreateTexture, Context: c.id, Detail: "failed"})
		return nil, c.r.FailTexture
	}
	t, err := c.inner.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	id := c.r.newTex(t)
	c.r.record(Op{Kind: OpCreateTexture, Context: c.id, Texture: id,
		Detail: fmt.Sprintf("%dx%d %s", desc.Width, desc.Height, desc.Label)})
	return t, nil
}

// DestroyTexture implements glctx.Context.
func (c *Context) DestroyTexture(t glctx.Texture) {
	c.r.record(Op{Kind: OpDestroyTexture, Context: c.id, Texture: c.r.TextureID(t)})
	c.inner.DestroyTexture(t)
}

// WriteTexture implements glctx.Context.
func (c *Context) WriteTexture(t glctx.Texture, rect image.Rectangle, pix []byte, stride int) error {
	c.r.record(Op{Kind: OpWriteTexture, Context: c.id, Texture: c.r.TextureID(t), Detail: rect.String()})
	return c.inner.WriteTexture(t, rect, pix, stride)
}

// ReadTexture implements glctx.Context.
func (c *Context) ReadTexture(t glctx.Texture, rect image.Rectangle) ([]byte, error) {
	c.r.record(Op{Kind: OpReadTexture, Context: c.id, Texture: c.r.TextureID(t), Detail: rect.String()})
	return c.inner.ReadTexture(t, rect)
}

// BorrowTexture implements glctx.Context.
func (c *Context) BorrowTexture(id uint32) (glctx.Texture, error) {
	if c.r.FailTexture != nil {
		c.r.record(Op{Kind: OpBorrowTexture, Context: c.id, Detail: "failed"})
		return nil, c.r.FailTexture
	}
	t, err := c.inner.BorrowTexture(id)
	if err != nil {
		return nil, err
	}
	tid := c.r.newTex(t)
	c.r.record(Op{Kind: OpBorrowTexture, Context: c.id, Texture: tid, Detail: fmt.Sprintf("export%d", id)})
	return t, nil
}

// CreateProgram implements glctx.Context.
func (c *Context) CreateProgram(name, wgsl string) (glctx.Program, error) {
	c.r.record(Op{Kind: OpCreateProgram, Context: c.id, Detail: name})
	return c.inner.CreateProgram(name, wgsl)
}

// DestroyProgram implements glctx.Context.
func (c *Context) DestroyProgram(p glctx.Program) {
	c.r.record(Op{Kind: OpDestroyProgram, Context: c.id, Detail: p.Name()})
	c.inner.DestroyProgram(p)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
