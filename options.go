package vconsole

import (
	"log/slog"
	"math"

	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/internal/dmabuf"
	"github.com/gogpu/vconsole/scanout"
)

// Default presentation scale settings.
const (
	// DefaultScaleStep is the zoom increment.
	DefaultScaleStep = 0.25

	// DefaultMinScale is the smallest scale factor zoom-out reaches.
	DefaultMinScale = 0.25

	// DefaultProduct prefixes every window title.
	DefaultProduct = "vconsole"
)

// Option configures a Session during creation.
//
// Example:
//
//	s := vconsole.New(provider, compositor,
//		vconsole.WithName("guest0"),
//		vconsole.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds optional configuration for Session creation.
type options struct {
	logger    *slog.Logger
	name      string
	product   string
	scaleStep float64
	minScale  float64
	params    glctx.Params
	importer  scanout.Importer
	onTitle   func(title string)
}

// defaultOptions returns the default session options.
func defaultOptions() options {
	return options{
		logger:    nil, // Will be set to Logger() if nil
		product:   DefaultProduct,
		scaleStep: DefaultScaleStep,
		minScale:  DefaultMinScale,
		params:    glctx.DefaultParams(),
		importer:  dmabuf.NewImporter(),
	}
}

// WithLogger sets the session logger. Without it the session uses the
// package logger from Logger at construction time.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithName sets the VM name shown in titles as "vconsole (name)".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithProduct replaces the "vconsole" title prefix.
func WithProduct(product string) Option {
	return func(o *options) {
		if product != "" {
			o.product = product
		}
	}
}

// WithScaleStep sets the zoom increment. Non-positive and infinite values
// are ignored.
func WithScaleStep(step float64) Option {
	return func(o *options) {
		if step > 0 && !math.IsInf(step, 1) {
			o.scaleStep = step
		}
	}
}

// WithMinScale sets the zoom-out floor. Non-positive and infinite values
// are ignored.
func WithMinScale(minScale float64) Option {
	return func(o *options) {
		if minScale > 0 && !math.IsInf(minScale, 1) {
			o.minScale = minScale
		}
	}
}

// WithContextParams sets the parameters of every console context. The
// label is replaced by the console label.
func WithContextParams(p glctx.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithImporter sets how shared buffers are mapped. The default maps dmabuf
// file descriptors on Linux.
//
// Example:
//
//	imp := scanout.ImporterFunc(func(buf *display.Dmabuf) (scanout.Mapping, error) {
//		return scanout.NewMemoryMapping(pixels[buf], nil), nil
//	})
//	s := vconsole.New(provider, compositor, vconsole.WithImporter(imp))
func WithImporter(imp scanout.Importer) Option {
	return func(o *options) {
		o.importer = imp
	}
}

// WithTitleFunc sets a callback that receives the session title whenever
// focus or the paused status changes.
func WithTitleFunc(fn func(title string)) Option {
	return func(o *options) {
		o.onTitle = fn
	}
}
