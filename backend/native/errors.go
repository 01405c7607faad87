// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNilDevice is returned when creating a provider without a HAL device or queue.
	ErrNilDevice = errors.New("native: HAL device is nil")

	// ErrNoAdapter is returned when the headless instance exposes no adapter.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrReadbackTimeout is returned when the GPU does not finish a readback in time.
	ErrReadbackTimeout = errors.New("native: readback timed out")

	// ErrForeignContext is returned for contexts created by another provider.
	ErrForeignContext = errors.New("native: context belongs to another provider")
)
