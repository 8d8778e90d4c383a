// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
	"github.com/LiarPrincess/Kaleidoscope/internal/codegen"
	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

// compileDef parses a single 'def' form and compiles it into u.
func compileDef(t *testing.T, u kaleidoscope.UnitBuilder, src string) error {
	t.Helper()
	stmts, err := syntax.Parse("test.kal", src, permissiveOps())
	if err != nil {
		t.Fatalf("parse `%s` failed: %v", src, err)
	}
	def := stmts[0].(*syntax.DefStmt)
	h, err := u.DeclareFunction(def.Proto)
	if err != nil {
		return err
	}
	return u.DefineFunctionBody(h, def.Body)
}

// permissiveOps returns an operator table with the user operators the
// tests mention already registered, since no session is driving the
// registration here.
func permissiveOps() *syntax.OperatorTable {
	ops := syntax.NewOperatorTable()
	ops.SetPrecedence('|', 5)
	ops.SetPrecedence('%', 40)
	return ops
}

// loadDefs compiles each src as a unit of one definition and loads it.
func loadDefs(t *testing.T, m *codegen.Machine, b *codegen.Backend, srcs ...string) {
	t.Helper()
	for _, src := range srcs {
		u := b.BeginUnit(nil)
		if err := compileDef(t, u, src); err != nil {
			t.Fatalf("compile `%s` failed: %v", src, err)
		}
		cu, err := u.Finalize()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Load(cu); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompileAndInvoke(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	b := codegen.NewBackend(m)
	loadDefs(t, m, b,
		`def double(x) x * 2`,
		`def fib(x) if x < 2 then x else fib(x - 1) + fib(x - 2)`,
		`def lt(a b) a < b`,
	)

	for _, test := range []struct {
		name string
		args []float64
		want float64
	}{
		{"double", []float64{21}, 42},
		{"fib", []float64{10}, 55}, // recursion gets a fresh frame per call
		{"lt", []float64{1, 2}, 1},
		{"lt", []float64{2, 1}, 0},
		{"lt", []float64{math.NaN(), 1}, 0}, // unordered is not less
		{"lt", []float64{1, math.NaN()}, 0},
	} {
		fn, ok := m.Resolve(test.name)
		if !ok {
			t.Fatalf("Resolve(%s) failed", test.name)
		}
		if got := fn(test.args...); got != test.want {
			t.Errorf("%s(%v) = %g, want %g", test.name, test.args, got, test.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, test := range []struct {
		src, want string
	}{
		{`def f(x) y`, `unknown variable name y`},
		{`def f(x) g(x)`, `unknown function g referenced`},
		{`def f(x) !x`, `unknown unary operator '!'`},
		{`def f(a b) a % b`, `invalid binary operator '%'`},
	} {
		m := codegen.NewMachine(new(bytes.Buffer))
		u := codegen.NewBackend(m).BeginUnit(nil)
		err := compileDef(t, u, test.src)
		if err == nil {
			t.Errorf("compile `%s` succeeded unexpectedly", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("compile `%s`: got error %q, want %q", test.src, err, test.want)
		}
	}
}

func TestCallArity(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	u := codegen.NewBackend(m).BeginUnit(nil)
	if err := compileDef(t, u, `def g(a b) a + b`); err != nil {
		t.Fatal(err)
	}
	err := compileDef(t, u, `def f(x) g(x)`)
	if err == nil {
		t.Fatal("call with wrong arity compiled unexpectedly")
	}
	if want := `incorrect number of arguments passed: g takes 2, got 1`; !strings.Contains(err.Error(), want) {
		t.Errorf("got error %q, want %q", err, want)
	}
}

func TestRedefinition(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	b := codegen.NewBackend(m)
	loadDefs(t, m, b, `def f(x) x`)

	err := compileDef(t, b.BeginUnit(nil), `def f(x) x + 1`)
	if err == nil {
		t.Fatal("redefinition compiled unexpectedly")
	}
	if want := `cannot redefine f`; !strings.Contains(err.Error(), want) {
		t.Errorf("got error %q, want %q", err, want)
	}

	// The original definition is untouched.
	fn, ok := m.Resolve("f")
	if !ok {
		t.Fatal("Resolve(f) failed")
	}
	if got := fn(7); got != 7 {
		t.Errorf("f(7) = %g, want 7", got)
	}
}

// TestForwardReference compiles a caller against a registry prototype
// only, then loads the callee afterwards; the call must still land.
func TestForwardReference(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	b := codegen.NewBackend(m)

	fooProto := &syntax.Prototype{Name: "foo", Params: []*syntax.Ident{{Name: "a"}}}
	resolve := func(name string) *syntax.Prototype {
		if name == "foo" {
			return fooProto
		}
		return nil
	}

	u := b.BeginUnit(resolve)
	if err := compileDef(t, u, `def bar(x) foo(x) + 1`); err != nil {
		t.Fatal(err)
	}
	cu, err := u.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(cu); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Resolve("foo"); ok { // not loaded yet, not a builtin
		t.Fatal("foo resolved before its definition was loaded")
	}

	loadDefs(t, m, b, `def foo(a) a * 2`)

	fn, ok := m.Resolve("bar")
	if !ok {
		t.Fatal("Resolve(bar) failed")
	}
	if got := fn(10); got != 21 {
		t.Errorf("bar(10) = %g, want 21", got)
	}
}

func TestUnload(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	b := codegen.NewBackend(m)

	u := b.BeginUnit(nil)
	if err := compileDef(t, u, `def tmp() 42`); err != nil {
		t.Fatal(err)
	}
	cu, err := u.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	h, err := m.Load(cu)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Resolve("tmp"); !ok {
		t.Fatal("Resolve(tmp) failed after Load")
	}
	m.Unload(h)
	if _, ok := m.Resolve("tmp"); ok {
		t.Error("tmp still resolvable after Unload")
	}
}

func TestHostBuiltins(t *testing.T) {
	var out bytes.Buffer
	m := codegen.NewMachine(&out)

	sin, ok := m.Resolve("sin")
	if !ok {
		t.Fatal("Resolve(sin) failed")
	}
	if got := sin(math.Pi / 2); math.Abs(got-1) > 1e-15 {
		t.Errorf("sin(pi/2) = %g, want 1", got)
	}

	putchard, _ := m.Resolve("putchard")
	putchard(72)
	putchard(105)
	printd, _ := m.Resolve("printd")
	printd(3.5)
	if want := "Hi3.500000\n"; out.String() != want {
		t.Errorf("host output %q, want %q", out.String(), want)
	}

	// A loaded definition shadows the host function of the same name.
	loadDefs(t, m, codegen.NewBackend(m), `def sin(x) 0`)
	sin, _ = m.Resolve("sin")
	if got := sin(math.Pi / 2); got != 0 {
		t.Errorf("shadowed sin(pi/2) = %g, want 0", got)
	}
}

// A call to a function from an earlier unit pulls its prototype into
// the current unit through the resolver; the dump must not list that
// as an extern the user never wrote.
func TestDumpOmitsSynthesizedDeclarations(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	b := codegen.NewBackend(m)
	loadDefs(t, m, b, `def double(x) x * 2`)

	doubleProto, _ := syntax.Parse("test.kal", `extern double(x)`, nil)
	resolve := func(name string) *syntax.Prototype {
		if name == "double" {
			return doubleProto[0].(*syntax.ExternStmt).Proto
		}
		return nil
	}

	// Wrap a bare expression the way the session driver does.
	body, err := syntax.ParseExpr("test.kal", `double(21)`, nil)
	if err != nil {
		t.Fatal(err)
	}
	u := b.BeginUnit(resolve)
	h, err := u.DeclareFunction(&syntax.Prototype{Name: "__anon_expr"})
	if err != nil {
		t.Fatal(err)
	}
	if err := u.DefineFunctionBody(h, body); err != nil {
		t.Fatal(err)
	}
	cu, err := u.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	want := "def __anon_expr() double(21)\n"
	if got := cu.Dump(); got != want {
		t.Errorf("Dump = %q, want %q", got, want)
	}
}

func TestUnitDump(t *testing.T) {
	m := codegen.NewMachine(new(bytes.Buffer))
	u := codegen.NewBackend(m).BeginUnit(nil)

	stmts, err := syntax.Parse("test.kal", `extern atan2(y x)  def g(x) atan2(x, 1)`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.DeclareFunction(stmts[0].(*syntax.ExternStmt).Proto); err != nil {
		t.Fatal(err)
	}
	def := stmts[1].(*syntax.DefStmt)
	h, err := u.DeclareFunction(def.Proto)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.DefineFunctionBody(h, def.Body); err != nil {
		t.Fatal(err)
	}
	cu, err := u.Finalize()
	if err != nil {
		t.Fatal(err)
	}

	want := "extern atan2(y x)\ndef g(x) atan2(x, 1)\n"
	if got := cu.Dump(); got != want {
		t.Errorf("Dump = %q, want %q", got, want)
	}
}
