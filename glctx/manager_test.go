// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glctx_test

import (
	"errors"
	"testing"

	"github.com/gogpu/vconsole/glctx"
	"github.com/gogpu/vconsole/internal/gltest"
)

func TestManagerLazyCreate(t *testing.T) {
	rec := gltest.New()
	m := glctx.NewManager(rec, glctx.Params{Major: 3, Minor: 3, Label: "vc0"}, nil)

	if m.Active() {
		t.Fatal("Active() before first use")
	}
	if _, ok := m.Current(); ok {
		t.Fatal("Current() created a context")
	}

	ctx1, err := m.EnsureCurrent()
	if err != nil {
		t.Fatalf("EnsureCurrent: %v", err)
	}
	ctx2, err := m.EnsureCurrent()
	if err != nil {
		t.Fatalf("EnsureCurrent: %v", err)
	}
	if ctx1 != ctx2 {
		t.Error("EnsureCurrent created a second context")
	}
	if n := rec.Count(gltest.OpCreateContext); n != 1 {
		t.Errorf("created %d contexts, want 1", n)
	}
	if n := rec.Count(gltest.OpMakeCurrent); n != 2 {
		t.Errorf("made current %d times, want 2", n)
	}

	m.Destroy()
	m.Destroy()
	if m.Active() {
		t.Error("Active() after Destroy")
	}
	if n := rec.Count(gltest.OpDestroyContext); n != 1 {
		t.Errorf("destroyed %d contexts, want 1", n)
	}
}

func TestManagerFailureIsTerminal(t *testing.T) {
	rec := gltest.New()
	boom := errors.New("no visual")
	rec.FailCreate = boom
	m := glctx.NewManager(rec, glctx.DefaultParams(), nil)

	_, err := m.EnsureCurrent()
	if !errors.Is(err, glctx.ErrContextFailed) || !errors.Is(err, boom) {
		t.Fatalf("EnsureCurrent err = %v, want ErrContextFailed wrapping provider error", err)
	}
	var ce *glctx.ContextError
	if !errors.As(err, &ce) || ce.Op != "create" {
		t.Fatalf("err = %#v, want *ContextError create", err)
	}

	rec.FailCreate = nil
	if _, err := m.EnsureCurrent(); !errors.Is(err, glctx.ErrContextFailed) {
		t.Errorf("second EnsureCurrent err = %v", err)
	}
	if n := rec.Count(gltest.OpCreateContext); n != 1 {
		t.Errorf("provider asked %d times, want 1", n)
	}
	if m.Failed() == nil {
		t.Error("Failed() = nil")
	}
}

func TestManagerNoProvider(t *testing.T) {
	m := glctx.NewManager(nil, glctx.DefaultParams(), nil)
	if _, err := m.EnsureCurrent(); !errors.Is(err, glctx.ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

func TestMakeCurrentFailureIsNotTerminal(t *testing.T) {
	rec := gltest.New()
	m := glctx.NewManager(rec, glctx.DefaultParams(), nil)
	if _, err := m.EnsureCurrent(); err != nil {
		t.Fatal(err)
	}

	rec.FailMakeCurrent = errors.New("lost surface")
	if _, err := m.EnsureCurrent(); err == nil || errors.Is(err, glctx.ErrContextFailed) {
		t.Fatalf("err = %v, want non-terminal make current error", err)
	}
	rec.FailMakeCurrent = nil
	if _, err := m.EnsureCurrent(); err != nil {
		t.Errorf("EnsureCurrent after recovery: %v", err)
	}
	if m.Failed() != nil {
		t.Errorf("Failed() = %v", m.Failed())
	}
}

func TestParams(t *testing.T) {
	p := glctx.DefaultParams()
	if p.String() != "3.3 core" {
		t.Errorf("DefaultParams() = %q", p.String())
	}
	if glctx.ProfileES.String() != "es" {
		t.Errorf("ProfileES = %q", glctx.ProfileES.String())
	}
}
