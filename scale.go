// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

import "math"

// scale is the presentation scale of one console.
type scale struct {
	x, y  float64
	free  bool
	step  float64
	floor float64
}

func newScale(step, floor float64) scale {
	return scale{x: 1, y: 1, step: step, floor: floor}
}

// clamp bounds v below by the floor. A non-finite v keeps prev.
func (s *scale) clamp(v, prev float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return prev
	case v < s.floor:
		return s.floor
	}
	return v
}

func (s *scale) zoom(delta float64) {
	s.free = false
	s.x = s.clamp(s.x+delta, s.x)
	s.y = s.clamp(s.y+delta, s.y)
}

func (s *scale) set(x, y float64) {
	s.x = s.clamp(x, s.x)
	s.y = s.clamp(y, s.y)
}

func (s *scale) fit(free bool) {
	s.free = free
	if free {
		s.x, s.y = 1, 1
	}
}

// ZoomIn grows the scale by one step and leaves zoom-to-fit.
func (c *Console) ZoomIn() {
	c.scale.zoom(c.scale.step)
	c.rescaled()
}

// ZoomOut shrinks the scale by one step, never below the floor.
func (c *Console) ZoomOut() {
	c.scale.zoom(-c.scale.step)
	c.rescaled()
}

// SetZoomToFit toggles zoom-to-fit. Enabling it resets the scale to 1.
func (c *Console) SetZoomToFit(free bool) {
	c.scale.fit(free)
	c.rescaled()
}

// ZoomToFit reports whether zoom-to-fit is on.
func (c *Console) ZoomToFit() bool { return c.scale.free }

// SetScale sets both factors, clamped to the floor. A NaN or infinite
// factor leaves that factor unchanged.
func (c *Console) SetScale(x, y float64) {
	c.scale.set(x, y)
	c.rescaled()
}

// Scale returns the horizontal and vertical scale factors.
func (c *Console) Scale() (x, y float64) { return c.scale.x, c.scale.y }

func (c *Console) rescaled() {
	c.log.Debug("vconsole: scale changed", "x", c.scale.x, "y", c.scale.y, "fit", c.scale.free)
	if c.state != StateUninitialized && c.state != StateDestroyed {
		c.present()
	}
}
