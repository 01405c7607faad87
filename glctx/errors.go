// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glctx

import (
	"errors"
	"fmt"
)

var (
	// ErrContextFailed marks a context creation failure. It is terminal for
	// the Manager that observed it.
	ErrContextFailed = errors.New("glctx: context creation failed")

	// ErrNoProvider is returned by a Manager built without a Provider.
	ErrNoProvider = errors.New("glctx: no context provider")

	// ErrNotCurrent is returned by backends when a context is used while
	// another one is current.
	ErrNotCurrent = errors.New("glctx: context is not current")

	// ErrInvalidTexture is returned for bad texture descriptors or for
	// textures that do not belong to the context.
	ErrInvalidTexture = errors.New("glctx: invalid texture")

	// ErrUnknownExport is returned by BorrowTexture for an id with no
	// exported texture.
	ErrUnknownExport = errors.New("glctx: unknown exported texture")

	// ErrContextDestroyed is returned when a destroyed context is used.
	ErrContextDestroyed = errors.New("glctx: context destroyed")
)

// ContextError reports a failed context operation.
type ContextError struct {
	// Op is the operation that failed, "create" or "make current".
	Op string

	// Label is the label of the context.
	Label string

	// Err is the underlying provider error.
	Err error
}

func (e *ContextError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("glctx: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("glctx: %s %q: %v", e.Op, e.Label, e.Err)
}

// Unwrap returns the provider error and, for creation failures,
// ErrContextFailed.
func (e *ContextError) Unwrap() []error {
	if e.Op == opCreate {
		return []error{ErrContextFailed, e.Err}
	}
	return []error{e.Err}
}

const (
	opCreate      = "create"
	opMakeCurrent = "make current"
)
