package dmabuf

import (
	"errors"

	"github.com/gogpu/vconsole/scanout"
)

// ErrUnsupportedPlatform is returned where shared buffers cannot be mapped.
var ErrUnsupportedPlatform = errors.New("dmabuf: unsupported platform")

// Importer implements scanout.Importer over real file descriptors.
type Importer struct{}

// NewImporter returns the platform importer.
func NewImporter() *Importer {
	return &Importer{}
}

var _ scanout.Importer = (*Importer)(nil)
