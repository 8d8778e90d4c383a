// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kaleidoscope

// This file defines the contracts between the session driver and the
// collaborators that serve it: the code generation backend that lowers
// syntax trees into units, and the machine (execution session) that
// loads units and resolves their exported symbols. The driver never
// manipulates generated code directly.

import "github.com/LiarPrincess/Kaleidoscope/syntax"

// A Resolver reports the known prototype for a function name, or nil.
// The backend calls it while lowering a unit so that calls to
// functions compiled in earlier units, or merely declared ahead of
// their definitions, elaborate against the declared signature.
type Resolver func(name string) *syntax.Prototype

// A Backend lowers syntax trees into executable units,
// one unit at a time.
type Backend interface {
	// BeginUnit starts a fresh compilation unit.
	BeginUnit(resolve Resolver) UnitBuilder
}

// A UnitBuilder accumulates the functions of one compilation unit.
type UnitBuilder interface {
	// DeclareFunction materializes a function signature in the unit
	// without a body. Parameters and the result are float64.
	DeclareFunction(proto *syntax.Prototype) (FuncHandle, error)

	// DefineFunctionBody lowers body into the declared function.
	// It fails if body refers to an unknown variable, an unknown
	// function or operator, or if the function already has a body in
	// the machine.
	DefineFunctionBody(fn FuncHandle, body syntax.Expr) error

	// Finalize completes the unit. The builder must not be used
	// afterwards.
	Finalize() (CompiledUnit, error)
}

// A FuncHandle identifies one declared function within a unit under
// construction. Its representation belongs to the backend.
type FuncHandle interface{}

// A CompiledUnit is a finished, loadable unit of code.
type CompiledUnit interface {
	// Dump returns a human-readable listing of the unit.
	Dump() string
}

// A Callable is the invocable form of a resolved function symbol.
type Callable func(args ...float64) float64

// A Machine is the execution session: it holds the loaded units and
// resolves exported symbols to callable addresses.
type Machine interface {
	// Load makes the unit's defined functions resolvable.
	Load(unit CompiledUnit) (UnitHandle, error)

	// Resolve returns the callable bound to name, consulting loaded
	// units first and then any host-provided functions.
	Resolve(name string) (Callable, bool)

	// Unload removes the symbols a previous Load added.
	Unload(h UnitHandle)
}

// A UnitHandle identifies one loaded unit within a Machine.
type UnitHandle interface{}
