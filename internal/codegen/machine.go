// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"io"
	"os"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
)

// A Machine is the execution session: it maps the exported symbols of
// every loaded unit, plus the built-in host functions, to callables.
// Definitions stay loaded until explicitly unloaded; in practice only
// the anonymous expression wrappers ever are.
type Machine struct {
	out      io.Writer
	symbols  map[string]*function
	builtins map[string]kaleidoscope.Callable
}

// NewMachine returns a machine with the host functions installed.
// out receives the output of putchard and printd; nil means os.Stdout.
func NewMachine(out io.Writer) *Machine {
	if out == nil {
		out = os.Stdout
	}
	m := &Machine{out: out, symbols: make(map[string]*function)}
	m.builtins = hostFuncs(m)
	return m
}

// A loadedUnit records the symbols one Load added, for Unload.
type loadedUnit struct {
	names []string
}

// Load makes the unit's defined functions resolvable.
func (m *Machine) Load(u kaleidoscope.CompiledUnit) (kaleidoscope.UnitHandle, error) {
	unit, ok := u.(*Unit)
	if !ok {
		return nil, fmt.Errorf("codegen: cannot load foreign unit %T", u)
	}
	h := new(loadedUnit)
	for _, fn := range unit.order {
		if fn.body == nil {
			continue // declarations export nothing
		}
		m.symbols[fn.proto.Name] = fn
		h.names = append(h.names, fn.proto.Name)
	}
	return h, nil
}

// Unload removes the symbols a previous Load added.
func (m *Machine) Unload(h kaleidoscope.UnitHandle) {
	unit, ok := h.(*loadedUnit)
	if !ok {
		return
	}
	for _, name := range unit.names {
		delete(m.symbols, name)
	}
}

// Resolve returns the callable bound to name: a loaded function if one
// exists, else a host builtin. A loaded definition shadows a host
// function of the same name.
func (m *Machine) Resolve(name string) (kaleidoscope.Callable, bool) {
	if fn, ok := m.symbols[name]; ok {
		return func(args ...float64) float64 { return m.invoke(fn, args) }, true
	}
	if b, ok := m.builtins[name]; ok {
		return b, true
	}
	return nil, false
}

// hasBody reports whether name already has a loaded definition.
// The backend consults it to reject redefinition.
func (m *Machine) hasBody(name string) bool {
	_, ok := m.symbols[name]
	return ok
}

// invoke runs fn on a fresh frame, so recursive and reentrant calls
// cannot clobber each other's storage.
func (m *Machine) invoke(fn *function, args []float64) float64 {
	fr := make(frame, fn.nslots)
	copy(fr, args)
	return fn.body(fr)
}
