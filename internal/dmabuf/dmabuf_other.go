//go:build !linux

package dmabuf

import (
	"fmt"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/scanout"
)

// Import implements scanout.Importer.
func (i *Importer) Import(buf *display.Dmabuf) (scanout.Mapping, error) {
	return nil, fmt.Errorf("%w: %w", scanout.ErrImport, ErrUnsupportedPlatform)
}
