//go:build linux

package dmabuf

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/gogpu/vconsole/display"
	"github.com/gogpu/vconsole/scanout"
)

func memfd(t *testing.T, data []byte) int {
	t.Helper()
	fd, err := unix.MemfdCreate("vconsole-test", 0)
	if err != nil {
		t.Skipf("memfd_create: %v", err)
	}
	t.Cleanup(func() { _ = unix.Close(fd) })
	if _, err := unix.Pwrite(fd, data, 0); err != nil {
		t.Fatalf("pwrite: %v", err)
	}
	return fd
}

func TestImportMapsBuffer(t *testing.T) {
	data := make([]byte, 4*2*4)
	for i := range data {
		data[i] = byte(i)
	}
	fd := memfd(t, data)
	buf := &display.Dmabuf{FD: fd, Width: 4, Height: 2, Stride: 16, Fourcc: display.FourccXRGB8888}

	m, err := NewImporter().Import(buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	pix := m.Pix()
	if len(pix) != len(data) || pix[17] != 17 {
		t.Fatalf("mapped %d bytes, pix[17] = %d", len(pix), pix[17])
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); !errors.Is(err, scanout.ErrLeaseReleased) {
		t.Errorf("second Close err = %v", err)
	}

	// The exporter's descriptor is untouched by the lease.
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		t.Errorf("exporter fd closed by lease: %v", err)
	}
}

func TestImportRejects(t *testing.T) {
	fd := memfd(t, make([]byte, 16))

	tests := []struct {
		name string
		buf  *display.Dmabuf
		want error
	}{
		{"too small", &display.Dmabuf{FD: fd, Width: 4, Height: 4, Stride: 16, Fourcc: display.FourccXRGB8888}, scanout.ErrImport},
		{"bad fd", &display.Dmabuf{FD: -1, Width: 1, Height: 1, Stride: 4, Fourcc: display.FourccXRGB8888}, scanout.ErrImport},
		{"tiled", &display.Dmabuf{FD: fd, Width: 1, Height: 1, Stride: 4, Fourcc: display.FourccXRGB8888, Modifier: 1}, scanout.ErrUnsupportedBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewImporter().Import(tt.buf); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
