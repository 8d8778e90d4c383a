// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

// An environ is the binding environment used while elaborating one
// function: it maps each visible name to its frame slot. Binding
// constructs push entries on the way in and pop them on the way out;
// the pop must restore a previously shadowed binding of the same name
// exactly, or outer scopes would be corrupted.
type environ struct {
	slots map[string]int
	n     int // slots live right now
	max   int // high-water mark; the frame size
}

// A savedBinding remembers what a bind displaced, so restore can put
// it back.
type savedBinding struct {
	name  string
	prev  int
	bound bool // name was already bound
}

// bind allocates a fresh slot for name, shadowing any existing
// binding, and returns the slot together with the state restore needs.
func (e *environ) bind(name string) (slot int, sv savedBinding) {
	if e.slots == nil {
		e.slots = make(map[string]int)
	}
	sv.name = name
	sv.prev, sv.bound = e.slots[name]
	slot = e.n
	e.n++
	if e.n > e.max {
		e.max = e.n
	}
	e.slots[name] = slot
	return slot, sv
}

// restore undoes the matching bind: the name reverts to its previous
// slot, or to unbound if there was none, and the slot is released for
// reuse by sibling scopes.
func (e *environ) restore(sv savedBinding) {
	e.n--
	if sv.bound {
		e.slots[sv.name] = sv.prev
	} else {
		delete(e.slots, sv.name)
	}
}

// lookup returns the slot name is currently bound to.
func (e *environ) lookup(name string) (int, bool) {
	slot, ok := e.slots[name]
	return slot, ok
}
