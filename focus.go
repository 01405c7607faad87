// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vconsole

// FocusRouter tracks which console owns keyboard and pointer input.
// Neither slot ever refers to a destroyed console.
type FocusRouter struct {
	kbd *Console
	ptr *Console

	onChange func()
}

// SetKeyboard makes c the keyboard owner. Nil or destroyed consoles clear
// the slot.
func (f *FocusRouter) SetKeyboard(c *Console) {
	f.kbd = live(c)
	f.changed()
}

// SetPointer makes c the pointer owner. Nil or destroyed consoles clear
// the slot.
func (f *FocusRouter) SetPointer(c *Console) {
	f.ptr = live(c)
	f.changed()
}

// Keyboard returns the keyboard owner, or nil.
func (f *FocusRouter) Keyboard() *Console { return f.kbd }

// Pointer returns the pointer owner, or nil.
func (f *FocusRouter) Pointer() *Console { return f.ptr }

// Forget clears every slot that refers to c.
func (f *FocusRouter) Forget(c *Console) {
	changed := false
	if f.kbd == c {
		f.kbd = nil
		changed = true
	}
	if f.ptr == c {
		f.ptr = nil
		changed = true
	}
	if changed {
		f.changed()
	}
}

func (f *FocusRouter) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}

func live(c *Console) *Console {
	if c == nil || c.state == StateDestroyed {
		return nil
	}
	return c
}
