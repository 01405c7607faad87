// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glctx

import (
	"log/slog"
)

// Manager owns the rendering context of one console.
//
// The zero value is not usable; create one with NewManager. A Manager is not
// safe for concurrent use: all calls come from the dispatching goroutine.
type Manager struct {
	provider Provider
	params   Params
	log      *slog.Logger

	ctx Context
	err error
}

// NewManager returns a Manager that creates contexts from p with params.
// A nil logger disables logging.
func NewManager(p Provider, params Params, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(discardHandler{})
	}
	return &Manager{provider: p, params: params, log: log}
}

// EnsureCurrent creates the context if needed and makes it current.
//
// A creation failure is remembered: every later call returns the same error
// without asking the provider again.
func (m *Manager) EnsureCurrent() (Context, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.ctx == nil {
		if m.provider == nil {
			m.err = &ContextError{Op: opCreate, Label: m.params.Label, Err: ErrNoProvider}
			return nil, m.err
		}
		ctx, err := m.provider.CreateContext(m.params)
		if err != nil {
			m.err = &ContextError{Op: opCreate, Label: m.params.Label, Err: err}
			m.log.Error("glctx: context creation failed",
				"label", m.params.Label, "params", m.params.String(), "err", err)
			return nil, m.err
		}
		m.ctx = ctx
		m.log.Info("glctx: context created", "label", m.params.Label, "params", m.params.String())
	}
	if err := m.provider.MakeCurrent(m.ctx); err != nil {
		return nil, &ContextError{Op: opMakeCurrent, Label: m.params.Label, Err: err}
	}
	return m.ctx, nil
}

// Current makes the existing context current without creating one.
// It reports false when there is no live context.
func (m *Manager) Current() (Context, bool) {
	if m.ctx == nil {
		return nil, false
	}
	if err := m.provider.MakeCurrent(m.ctx); err != nil {
		m.log.Warn("glctx: make current failed", "label", m.params.Label, "err", err)
		return nil, false
	}
	return m.ctx, true
}

// Destroy releases the context. Callers must have freed every resource
// created in it. Destroy is a no-op without a live context and does not clear
// a recorded creation failure.
func (m *Manager) Destroy() {
	if m.ctx == nil {
		return
	}
	m.provider.DestroyContext(m.ctx)
	m.ctx = nil
	m.log.Debug("glctx: context destroyed", "label", m.params.Label)
}

// Failed returns the creation error, or nil.
func (m *Manager) Failed() error {
	return m.err
}

// Active reports whether a context is live.
func (m *Manager) Active() bool {
	return m.ctx != nil
}

// Params returns the creation parameters.
func (m *Manager) Params() Params {
	return m.params
}
