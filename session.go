// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kaleidoscope implements the incremental compile-and-execute
// driver for the Kaleidoscope language.
//
// A Session reads one top-level form at a time, compiles it as its
// own unit against a code generation Backend, and dispatches on the
// form: definitions and externs stay loaded in the Machine and join
// the prototype registry, while a bare expression is wrapped in an
// anonymous zero-argument function, run immediately, reported, and
// unloaded again.
//
// A Session owns its operator table and prototype registry;
// independent sessions share nothing. A Session is strictly
// sequential and not safe for concurrent use.
package kaleidoscope // import "github.com/LiarPrincess/Kaleidoscope"

import (
	"fmt"
	"io"
	"os"

	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

// anonFuncName is the exported symbol of the single-use function a
// bare top-level expression is wrapped in. It cannot collide with a
// user name: '_' is not an identifier character.
const anonFuncName = "__anon_expr"

// Options configures a new Session.
type Options struct {
	// Backend lowers each parsed form into a compiled unit.
	Backend Backend

	// Machine loads compiled units and resolves their symbols.
	Machine Machine

	// Output receives unit listings and evaluation results.
	// nil means os.Stdout.
	Output io.Writer

	// Errors receives parse and elaboration diagnostics.
	// nil means os.Stderr.
	Errors io.Writer

	// ShowCode prints a listing of each compiled unit to Output.
	// Evaluation results are reported either way.
	ShowCode bool
}

// A Session is an incremental compile-and-execute driver.
type Session struct {
	ops      *syntax.OperatorTable
	protos   map[string]*syntax.Prototype
	backend  Backend
	machine  Machine
	out      io.Writer
	errs     io.Writer
	showCode bool
}

// NewSession returns a session with the built-in operator table and an
// empty prototype registry.
func NewSession(opts Options) *Session {
	s := &Session{
		ops:      syntax.NewOperatorTable(),
		protos:   make(map[string]*syntax.Prototype),
		backend:  opts.Backend,
		machine:  opts.Machine,
		out:      opts.Output,
		errs:     opts.Errors,
		showCode: opts.ShowCode,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errs == nil {
		s.errs = os.Stderr
	}
	return s
}

// Operators returns the session's operator table, for constructing a
// syntax.Parser that feeds this session.
func (s *Session) Operators() *syntax.OperatorTable { return s.ops }

// declare records proto in the prototype registry, overwriting any
// earlier declaration of the same name.
func (s *Session) declare(proto *syntax.Prototype) {
	s.protos[proto.Name] = proto
}

// resolve is the Resolver handed to the backend.
func (s *Session) resolve(name string) *syntax.Prototype {
	return s.protos[name]
}

// ExecFile runs every top-level form of a source file in the session.
// The src parameter is as for syntax.NewParser. Parse and elaboration
// errors are reported to the session's diagnostic writer and recovered
// per form; only I/O failures are returned.
func (s *Session) ExecFile(filename string, src interface{}) error {
	p, err := syntax.NewParser(filename, src, s.ops)
	if err != nil {
		return err
	}
	for {
		if err := s.Step(p); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Step reads, compiles, and (for a bare expression) executes a single
// top-level form from p. It returns io.EOF at end of input.
//
// A parse error is reported, the offending token is discarded to
// resynchronize, and Step returns nil: one malformed form must not end
// the session. Elaboration errors are likewise reported and recovered;
// the parse already ended at a form boundary, so no token is skipped.
func (s *Session) Step(p *syntax.Parser) error {
	stmt, err := p.ParseTopLevel()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		fmt.Fprintln(s.errs, err)
		return p.Skip()
	}
	if err := s.exec(stmt); err != nil {
		fmt.Fprintln(s.errs, err)
	}
	return nil
}

func (s *Session) exec(stmt syntax.Stmt) error {
	switch stmt := stmt.(type) {
	case *syntax.DefStmt:
		return s.execDef(stmt)
	case *syntax.ExternStmt:
		return s.execExtern(stmt)
	case *syntax.ExprStmt:
		return s.execExpr(stmt)
	}
	panic(stmt)
}

// execDef compiles a definition into its own unit and leaves the unit
// loaded. On success the prototype moves into the registry, and an
// operator definition updates the operator table so the new operator
// parses in the very next form.
func (s *Session) execDef(def *syntax.DefStmt) error {
	unit := s.backend.BeginUnit(s.resolve)
	fn, err := unit.DeclareFunction(def.Proto)
	if err != nil {
		return err
	}
	if err := unit.DefineFunctionBody(fn, def.Body); err != nil {
		return err
	}
	compiled, err := unit.Finalize()
	if err != nil {
		return err
	}
	if _, err := s.machine.Load(compiled); err != nil {
		return err
	}
	s.declare(def.Proto)
	if proto := def.Proto; proto.IsOperator && len(proto.Params) == 2 {
		s.ops.SetPrecedence(proto.Operator(), proto.Precedence)
	}
	if s.showCode {
		fmt.Fprintln(s.out, "Read function definition:")
		fmt.Fprint(s.out, compiled.Dump())
	}
	return nil
}

// execExtern elaborates a bodyless declaration and records its
// prototype so later units can call the name before (or without) a
// definition.
func (s *Session) execExtern(ext *syntax.ExternStmt) error {
	unit := s.backend.BeginUnit(s.resolve)
	if _, err := unit.DeclareFunction(ext.Proto); err != nil {
		return err
	}
	compiled, err := unit.Finalize()
	if err != nil {
		return err
	}
	s.declare(ext.Proto)
	if s.showCode {
		fmt.Fprintln(s.out, "Read extern:")
		fmt.Fprint(s.out, compiled.Dump())
	}
	return nil
}

// execExpr compiles a bare expression as an anonymous function, runs
// it, reports the value, and unloads the single-use unit again.
func (s *Session) execExpr(stmt *syntax.ExprStmt) error {
	v, compiled, err := s.evalExpr(stmt.X)
	if err != nil {
		return err
	}
	if s.showCode {
		fmt.Fprintln(s.out, "Read top-level expression:")
		fmt.Fprint(s.out, compiled.Dump())
	}
	fmt.Fprintf(s.out, "Evaluated to %f\n", v)
	return nil
}

// EvalExpr compiles and runs a single expression in the session,
// returning its value. The expression unit is unloaded afterwards;
// only definitions persist.
func (s *Session) EvalExpr(x syntax.Expr) (float64, error) {
	v, _, err := s.evalExpr(x)
	return v, err
}

func (s *Session) evalExpr(x syntax.Expr) (float64, CompiledUnit, error) {
	pos, _ := x.Span()
	proto := &syntax.Prototype{NamePos: pos, Name: anonFuncName}
	unit := s.backend.BeginUnit(s.resolve)
	fn, err := unit.DeclareFunction(proto)
	if err != nil {
		return 0, nil, err
	}
	if err := unit.DefineFunctionBody(fn, x); err != nil {
		return 0, nil, err
	}
	compiled, err := unit.Finalize()
	if err != nil {
		return 0, nil, err
	}
	handle, err := s.machine.Load(compiled)
	if err != nil {
		return 0, nil, err
	}
	defer s.machine.Unload(handle)
	entry, ok := s.machine.Resolve(anonFuncName)
	if !ok {
		// Anything that elaborated must resolve.
		panic("kaleidoscope: anonymous expression did not resolve after load")
	}
	return entry(), compiled, nil
}
