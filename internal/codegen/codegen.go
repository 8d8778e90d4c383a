// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen is the default Kaleidoscope code generation backend
// and execution session.
//
// Each function body lowers to a closure over a flat frame of float64
// slots. Parameters and 'var'/'for' bindings occupy one slot each; the
// elaboration environment maps names to slot indexes and is saved and
// restored around every binding construct, so shadowing is exact.
// Calls link late: the emitted closure looks its callee up in the
// machine at invocation time, which is what lets a call site compiled
// in one unit bind to a definition loaded afterwards.
package codegen

import (
	"bytes"
	"fmt"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

// A frame holds the local storage slots of one function invocation,
// parameters first.
type frame []float64

// code is one compiled expression, evaluated against an invocation
// frame.
type code func(fr frame) float64

// A function is one function of a unit: a prototype, and, once
// defined, a compiled body.
type function struct {
	proto       *syntax.Prototype
	body        code        // nil until DefineFunctionBody
	nslots      int         // frame size
	source      syntax.Expr // body syntax, retained for Dump
	synthesized bool        // redeclared from the registry, not written in this unit
}

// A Backend lowers units that resolve against (and load into) a
// particular machine.
type Backend struct {
	m *Machine
}

// NewBackend returns a backend generating code for m.
func NewBackend(m *Machine) *Backend { return &Backend{m: m} }

// BeginUnit starts a fresh compilation unit.
func (b *Backend) BeginUnit(resolve kaleidoscope.Resolver) kaleidoscope.UnitBuilder {
	return &Unit{m: b.m, resolve: resolve, funcs: make(map[string]*function)}
}

// A Unit is a compilation unit under construction and, once finalized,
// the loadable result.
type Unit struct {
	m       *Machine
	resolve kaleidoscope.Resolver
	funcs   map[string]*function
	order   []*function // declaration order, for Dump
	done    bool
}

// DeclareFunction materializes a signature in the unit without a body.
func (u *Unit) DeclareFunction(proto *syntax.Prototype) (kaleidoscope.FuncHandle, error) {
	if u.done {
		return nil, fmt.Errorf("codegen: declare in finalized unit")
	}
	fn := &function{proto: proto, nslots: len(proto.Params)}
	u.funcs[proto.Name] = fn
	u.order = append(u.order, fn)
	return fn, nil
}

// DefineFunctionBody lowers body into the declared function.
func (u *Unit) DefineFunctionBody(h kaleidoscope.FuncHandle, body syntax.Expr) error {
	fn := h.(*function)
	if u.m.hasBody(fn.proto.Name) {
		return kaleidoscope.Errorf(fn.proto.NamePos, "cannot redefine %s", fn.proto.Name)
	}
	env := new(environ)
	for _, param := range fn.proto.Params {
		env.bind(param.Name)
	}
	compiled, err := u.compile(env, body)
	if err != nil {
		return err
	}
	fn.body = compiled
	fn.nslots = env.max
	fn.source = body
	return nil
}

// Finalize completes the unit.
func (u *Unit) Finalize() (kaleidoscope.CompiledUnit, error) {
	if u.done {
		return nil, fmt.Errorf("codegen: unit already finalized")
	}
	u.done = true
	return u, nil
}

// Dump returns a source-like listing of the unit, declarations first.
// Declarations the elaborator pulled in from the registry are omitted:
// the listing shows what the unit's own form contained.
func (u *Unit) Dump() string {
	var buf bytes.Buffer
	for _, fn := range u.order {
		if fn.body == nil && !fn.synthesized {
			fmt.Fprintf(&buf, "extern %s\n", syntax.FormatProto(fn.proto))
		}
	}
	for _, fn := range u.order {
		if fn.body != nil {
			fmt.Fprintf(&buf, "def %s %s\n", syntax.FormatProto(fn.proto), syntax.FormatExpr(fn.source))
		}
	}
	return buf.String()
}

// declared returns the prototype a function name elaborates against:
// a function already declared in this unit, or one known to the
// session's registry, which is then redeclared into this unit as a
// forward declaration. It returns nil for an unknown name.
func (u *Unit) declared(name string) *syntax.Prototype {
	if fn, ok := u.funcs[name]; ok {
		return fn.proto
	}
	if u.resolve != nil {
		if proto := u.resolve(name); proto != nil {
			fn := &function{proto: proto, nslots: len(proto.Params), synthesized: true}
			u.funcs[name] = fn
			u.order = append(u.order, fn)
			return proto
		}
	}
	return nil
}

// linkCall elaborates a call of name with nargs arguments and returns
// a caller bound late: the callee is resolved in the machine at each
// invocation, so a definition loaded after this unit still satisfies
// the call.
func (u *Unit) linkCall(pos syntax.Position, name string, nargs int) (kaleidoscope.Callable, error) {
	proto := u.declared(name)
	if proto == nil {
		return nil, kaleidoscope.Errorf(pos, "unknown function %s referenced", name)
	}
	if len(proto.Params) != nargs {
		return nil, kaleidoscope.Errorf(pos, "incorrect number of arguments passed: %s takes %d, got %d",
			name, len(proto.Params), nargs)
	}
	m := u.m
	return func(args ...float64) float64 {
		fn, ok := m.Resolve(name)
		if !ok {
			// An elaborated call must resolve by the time its unit
			// runs; a miss here is an internal-consistency fault, not
			// a user error.
			panic(fmt.Sprintf("kaleidoscope: call to %s did not resolve (declared but never defined)", name))
		}
		return fn(args...)
	}, nil
}

// compile lowers x to executable code, resolving variable references
// against env and function references against the unit and the
// session registry.
func (u *Unit) compile(env *environ, x syntax.Expr) (code, error) {
	switch x := x.(type) {
	case *syntax.NumberExpr:
		v := x.Value
		return func(fr frame) float64 { return v }, nil

	case *syntax.Ident:
		slot, ok := env.lookup(x.Name)
		if !ok {
			return nil, kaleidoscope.Errorf(x.NamePos, "unknown variable name %s", x.Name)
		}
		return func(fr frame) float64 { return fr[slot] }, nil

	case *syntax.UnaryExpr:
		operand, err := u.compile(env, x.X)
		if err != nil {
			return nil, err
		}
		name := "unary" + string(x.Op)
		if u.declared(name) == nil {
			return nil, kaleidoscope.Errorf(x.OpPos, "unknown unary operator '%c'", x.Op)
		}
		call, err := u.linkCall(x.OpPos, name, 1)
		if err != nil {
			return nil, err
		}
		return func(fr frame) float64 { return call(operand(fr)) }, nil

	case *syntax.BinaryExpr:
		return u.compileBinary(env, x)

	case *syntax.CallExpr:
		args := make([]code, len(x.Args))
		for i, arg := range x.Args {
			compiled, err := u.compile(env, arg)
			if err != nil {
				return nil, err
			}
			args[i] = compiled
		}
		if u.declared(x.Func.Name) == nil {
			return nil, kaleidoscope.Errorf(x.Func.NamePos, "unknown function %s referenced", x.Func.Name)
		}
		call, err := u.linkCall(x.Func.NamePos, x.Func.Name, len(args))
		if err != nil {
			return nil, err
		}
		return func(fr frame) float64 {
			argv := make([]float64, len(args))
			for i, arg := range args {
				argv[i] = arg(fr)
			}
			return call(argv...)
		}, nil

	case *syntax.IfExpr:
		cond, err := u.compile(env, x.Cond)
		if err != nil {
			return nil, err
		}
		truebr, err := u.compile(env, x.True)
		if err != nil {
			return nil, err
		}
		falsebr, err := u.compile(env, x.False)
		if err != nil {
			return nil, err
		}
		return func(fr frame) float64 {
			if cond(fr) != 0 {
				return truebr(fr)
			}
			return falsebr(fr)
		}, nil

	case *syntax.ForExpr:
		return u.compileFor(env, x)

	case *syntax.VarExpr:
		return u.compileVar(env, x)
	}
	panic(x)
}

func (u *Unit) compileBinary(env *environ, x *syntax.BinaryExpr) (code, error) {
	lhs, err := u.compile(env, x.X)
	if err != nil {
		return nil, err
	}
	rhs, err := u.compile(env, x.Y)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case '+':
		return func(fr frame) float64 { return lhs(fr) + rhs(fr) }, nil
	case '-':
		return func(fr frame) float64 { return lhs(fr) - rhs(fr) }, nil
	case '*':
		return func(fr frame) float64 { return lhs(fr) * rhs(fr) }, nil
	case '<':
		// An unordered comparison is "not less than": NaN operands
		// yield 0, which Go's < gives directly.
		return func(fr frame) float64 {
			if lhs(fr) < rhs(fr) {
				return 1
			}
			return 0
		}, nil
	}

	// User-defined operator: lowered to a call of binary<op>.
	name := "binary" + string(x.Op)
	if u.declared(name) == nil {
		return nil, kaleidoscope.Errorf(x.OpPos, "invalid binary operator '%c'", x.Op)
	}
	call, err := u.linkCall(x.OpPos, name, 2)
	if err != nil {
		return nil, err
	}
	return func(fr frame) float64 { return call(lhs(fr), rhs(fr)) }, nil
}

// compileFor lowers a loop. The body runs at least once; the end
// condition is evaluated after the body with the current induction
// value, then the step is added.
func (u *Unit) compileFor(env *environ, x *syntax.ForExpr) (code, error) {
	start, err := u.compile(env, x.Start)
	if err != nil {
		return nil, err
	}
	slot, saved := env.bind(x.Var.Name)
	end, err2 := u.compile(env, x.End)
	var step code
	if err2 == nil && x.Step != nil {
		step, err2 = u.compile(env, x.Step)
	}
	var body code
	if err2 == nil {
		body, err2 = u.compile(env, x.Body)
	}
	env.restore(saved)
	if err2 != nil {
		return nil, err2
	}
	return func(fr frame) float64 {
		fr[slot] = start(fr)
		for {
			body(fr)
			inc := 1.0
			if step != nil {
				inc = step(fr)
			}
			done := end(fr) == 0
			fr[slot] += inc
			if done {
				break
			}
		}
		return 0
	}, nil
}

// compileVar lowers a var..in expression. Initializers are elaborated
// in the enclosing scope; all names become visible together in the
// body, and on the way out each name reverts exactly to whatever it
// was bound to before.
func (u *Unit) compileVar(env *environ, x *syntax.VarExpr) (code, error) {
	inits := make([]code, len(x.Names))
	for i, nv := range x.Names {
		if nv.Init != nil {
			compiled, err := u.compile(env, nv.Init)
			if err != nil {
				return nil, err
			}
			inits[i] = compiled
		}
	}
	slots := make([]int, len(x.Names))
	saves := make([]savedBinding, len(x.Names))
	for i, nv := range x.Names {
		slots[i], saves[i] = env.bind(nv.Name.Name)
	}
	body, err := u.compile(env, x.Body)
	for i := len(saves) - 1; i >= 0; i-- {
		env.restore(saves[i])
	}
	if err != nil {
		return nil, err
	}
	return func(fr frame) float64 {
		for i, init := range inits {
			v := 0.0
			if init != nil {
				v = init(fr)
			}
			fr[slots[i]] = v
		}
		return body(fr)
	}, nil
}
