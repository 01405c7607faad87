// Package vconsole bridges guest display outputs to GPU textures for a host
// compositor.
//
// # Overview
//
// A virtual machine exposes one or more display outputs. Each output sends
// asynchronous notifications: raw pixel updates of a CPU surface, surface
// switches on mode changes, GPU scanout hand-offs of guest-rendered
// textures, and shared-buffer (dmabuf) imports. vconsole turns those
// notifications into textures for the host compositor while managing GPU
// context lifetime, buffer leases and input-focus ownership.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/vconsole"
//		"github.com/gogpu/vconsole/backend"
//		_ "github.com/gogpu/vconsole/backend/soft"
//	)
//
//	b, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	s := vconsole.New(b.Provider(), compositor)
//	if err := s.Enumerate(subsystem); err != nil {
//		log.Fatal(err)
//	}
//	if err := s.Register(); err != nil {
//		log.Fatal(err)
//	}
//	defer s.DestroyAll()
//
// After Register the guest display subsystem delivers events through
// [Session.Dispatch] using the token issued for each console.
//
// # Console States
//
// Every console moves through a small state machine:
//
//	Uninitialized -> CPUSurface -> ScanoutTexture -> ScanoutImported
//	                     ^---------------------------------'
//
// Teardown moves every console to Destroyed. At most one of the CPU surface
// and the two scanout states is active at a time.
//
// # Errors
//
// Nothing here is fatal to the process. A [ProtocolError] marks an event
// that does not fit the console's state and is a no-op. A [ResourceError]
// disables the rendering path of one console, which then presents no
// image. [ErrUnimplemented] marks an event variant with no handler.
//
// # Threading
//
// A Session is not safe for concurrent use. All events for a session are
// dispatched from one goroutine, the one that owns the GPU contexts.
package vconsole

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
