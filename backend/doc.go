// Package backend provides a pluggable registry of GPU context providers.
//
// # Backend Registration
//
// Backends register themselves from init() functions and are selected at
// runtime. Import the backend packages you want available:
//
//	import (
//		_ "github.com/gogpu/vconsole/backend/native"
//		_ "github.com/gogpu/vconsole/backend/soft"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b, err := backend.Get("soft")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	s := vconsole.New(b.Provider(), compositor)
//
// # Available Backends
//
// - "soft": CPU textures in Go memory (always available)
// - "native": gogpu/wgpu HAL device
package backend
