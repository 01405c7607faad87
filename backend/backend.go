package backend

import (
	"errors"

	"github.com/gogpu/vconsole/glctx"
)

// Backend name constants.
const (
	// BackendSoft is the name of the pure Go software provider.
	BackendSoft = "soft"
	// BackendNative is the name of the gogpu/wgpu HAL provider.
	BackendNative = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend is a named source of GPU contexts.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "soft", "native").
	Name() string

	// Provider returns the context provider consoles draw through.
	Provider() glctx.Provider

	// Close releases the backend. Every context created from the provider
	// must be destroyed first.
	Close()
}
