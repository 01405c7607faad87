//go:build linux

package dmabuf

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/scanout"
)

// Import implements scanout.Importer.
func (i *Importer) Import(buf *display.Dmabuf) (scanout.Mapping, error) {
	if err := scanout.Validate(buf); err != nil {
		return nil, err
	}
	fd, err := unix.Dup(buf.FD)
	if err != nil {
		return nil, fmt.Errorf("%w: dup fd %d: %w", scanout.ErrImport, buf.FD, err)
	}

	size := buf.Size()
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: fstat fd %d: %w", scanout.ErrImport, buf.FD, err)
	}
	// Some exporters report a zero size; trust the metadata then.
	if st.Size > 0 && st.Size < int64(size) {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: buffer of %d bytes smaller than %d", scanout.ErrImport, st.Size, size)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: mmap fd %d: %w", scanout.ErrImport, buf.FD, err)
	}
	return &mapping{fd: fd, data: data}, nil
}

type mapping struct {
	fd     int
	data   []byte
	closed bool
}

func (m *mapping) Pix() []byte { return m.data }

func (m *mapping) Close() error {
	if m.closed {
		return scanout.ErrLeaseReleased
	}
	m.closed = true
	errUnmap := unix.Munmap(m.data)
	m.data = nil
	errClose := unix.Close(m.fd)
	return errors.Join(errUnmap, errClose)
}
