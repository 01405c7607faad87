// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by Dispatch matches one of these
// through errors.Is.
var (
	// ErrProtocolViolation marks an event that does not fit the console's
	// current state. The event is a no-op.
	ErrProtocolViolation = errors.New("vconsole: protocol violation")

	// ErrResourceCreation marks a failed GPU context or texture creation.
	// The console's rendering path is disabled.
	ErrResourceCreation = errors.New("vconsole: resource creation failed")

	// ErrUnimplemented marks an event variant without a handler.
	ErrUnimplemented = errors.New("vconsole: unimplemented event")

	// ErrIncompatibleListener is returned for a token this session did not
	// issue.
	ErrIncompatibleListener = errors.New("vconsole: incompatible listener")

	// ErrAlreadyRegistered is returned by a second Register or by
	// Enumerate after Register.
	ErrAlreadyRegistered = errors.New("vconsole: listeners already registered")

	// ErrNotEnumerated is returned by Register before Enumerate.
	ErrNotEnumerated = errors.New("vconsole: display sources not enumerated")

	// ErrAlreadyEnumerated is returned by a second Enumerate.
	ErrAlreadyEnumerated = errors.New("vconsole: display sources already enumerated")

	// ErrNoConsole is returned for a console index out of range.
	ErrNoConsole = errors.New("vconsole: no such console")

	// ErrDestroyed is returned after DestroyAll.
	ErrDestroyed = errors.New("vconsole: session destroyed")
)

// ProtocolError reports an event that was ignored because it does not fit
// the console's state.
type ProtocolError struct {
	// Console is the console index.
	Console int

	// Event is the event kind, e.g. "gl-release-dmabuf".
	Event string

	// Reason describes the mismatch.
	Reason string

	// Err is an optional underlying error.
	Err error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("vconsole: console %d: %s: %s", e.Console, e.Event, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrProtocolViolation and the underlying error.
func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProtocolViolation}
	}
	return []error{ErrProtocolViolation, e.Err}
}

// ResourceError reports a GPU resource that could not be created.
type ResourceError struct {
	// Console is the console index.
	Console int

	// Op names the resource, e.g. "context" or "window texture".
	Op string

	// Err is the backend error.
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("vconsole: console %d: create %s: %v", e.Console, e.Op, e.Err)
}

// Unwrap returns ErrResourceCreation and the backend error.
func (e *ResourceError) Unwrap() []error {
	return []error{ErrResourceCreation, e.Err}
}
