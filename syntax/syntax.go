// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syntax provides a Kaleidoscope lexer, parser, and abstract
// syntax tree.
//
// Kaleidoscope is a small expression language: every construct,
// including conditionals, loops, and variable introduction, is an
// expression yielding a 64-bit floating-point number. Programs extend
// the operator set at run time with 'def unary' and 'def binary'
// forms, so the parser is parameterized by an OperatorTable whose
// contents may change between top-level forms.
package syntax // import "github.com/LiarPrincess/Kaleidoscope/syntax"

import "unicode/utf8"

// A Node is a node in a Kaleidoscope syntax tree.
type Node interface {
	// Span returns the start and end position of the expression.
	Span() (start, end Position)
}

// Start returns the start position of the expression.
func Start(n Node) Position {
	start, _ := n.Span()
	return start
}

// End returns the end position of the expression.
func End(n Node) Position {
	_, end := n.Span()
	return end
}

// A Stmt is a top-level form: a function or operator definition, an
// extern declaration, or a bare expression to evaluate immediately.
type Stmt interface {
	Node
	stmt()
}

func (*DefStmt) stmt()    {}
func (*ExternStmt) stmt() {}
func (*ExprStmt) stmt()   {}

// A DefStmt defines a function or a user operator:
//	def fib(x) ...
//	def binary| 5 (a b) ...
type DefStmt struct {
	Def   Position
	Proto *Prototype
	Body  Expr
}

func (x *DefStmt) Span() (start, end Position) {
	_, end = x.Body.Span()
	return x.Def, end
}

// An ExternStmt declares the signature of a function defined
// elsewhere: extern sin(a).
type ExternStmt struct {
	Extern Position
	Proto  *Prototype
}

func (x *ExternStmt) Span() (start, end Position) {
	_, end = x.Proto.Span()
	return x.Extern, end
}

// An ExprStmt is a bare top-level expression.
type ExprStmt struct {
	X Expr
}

func (x *ExprStmt) Span() (start, end Position) {
	return x.X.Span()
}

// A Prototype describes a function signature: a name and parameter
// names. For a user operator definition the name embeds the operator
// character ("unary!", "binary|"), and Precedence records the binding
// strength of a binary operator.
type Prototype struct {
	NamePos    Position
	Name       string
	Params     []*Ident
	Rparen     Position
	IsOperator bool
	Precedence int // meaningful only if IsOperator and len(Params) == 2
}

func (x *Prototype) Span() (start, end Position) {
	return x.NamePos, x.Rparen.add(")")
}

// Operator returns the operator character of a unary or binary
// operator prototype.
func (x *Prototype) Operator() rune {
	r, _ := utf8.DecodeLastRuneInString(x.Name)
	return r
}

// An Expr is a Kaleidoscope expression.
type Expr interface {
	Node
	expr()
}

func (*NumberExpr) expr() {}
func (*Ident) expr()      {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
func (*CallExpr) expr()   {}
func (*IfExpr) expr()     {}
func (*ForExpr) expr()    {}
func (*VarExpr) expr()    {}

// A NumberExpr represents a numeric literal like 1.0.
type NumberExpr struct {
	TokenPos Position
	Raw      string // uninterpreted text
	Value    float64
}

func (x *NumberExpr) Span() (start, end Position) {
	return x.TokenPos, x.TokenPos.add(x.Raw)
}

// An Ident represents an identifier.
type Ident struct {
	NamePos Position
	Name    string
}

func (x *Ident) Span() (start, end Position) {
	return x.NamePos, x.NamePos.add(x.Name)
}

// A UnaryExpr represents a user unary operator application: Op X.
type UnaryExpr struct {
	OpPos Position
	Op    rune
	X     Expr
}

func (x *UnaryExpr) Span() (start, end Position) {
	_, end = x.X.Span()
	return x.OpPos, end
}

// A BinaryExpr represents a binary operator application: X Op Y.
// Op may be a built-in operator or any user-declared operator
// character.
type BinaryExpr struct {
	X     Expr
	OpPos Position
	Op    rune
	Y     Expr
}

func (x *BinaryExpr) Span() (start, end Position) {
	start, _ = x.X.Span()
	_, end = x.Y.Span()
	return start, end
}

// A CallExpr represents a function call: Func(Args).
type CallExpr struct {
	Func   *Ident
	Lparen Position
	Args   []Expr
	Rparen Position
}

func (x *CallExpr) Span() (start, end Position) {
	start, _ = x.Func.Span()
	return start, x.Rparen.add(")")
}

// An IfExpr represents a conditional expression:
// if Cond then True else False.
// All three branches are mandatory.
type IfExpr struct {
	If    Position
	Cond  Expr
	True  Expr
	False Expr
}

func (x *IfExpr) Span() (start, end Position) {
	_, end = x.False.Span()
	return x.If, end
}

// A ForExpr represents a loop:
// for Var = Start, End[, Step] in Body.
// A for expression always evaluates to 0.
type ForExpr struct {
	For   Position
	Var   *Ident
	Start Expr
	End   Expr
	Step  Expr // optional; 1 if nil
	Body  Expr
}

func (x *ForExpr) Span() (start, end Position) {
	_, end = x.Body.Span()
	return x.For, end
}

// A VarExpr introduces local variables:
// var Name (= Init)?, ... in Body.
// A name without an initializer defaults to 0. The names are visible
// only within Body, where they shadow enclosing bindings of the same
// names.
type VarExpr struct {
	Var   Position
	Names []VarInit
	Body  Expr
}

func (x *VarExpr) Span() (start, end Position) {
	_, end = x.Body.Span()
	return x.Var, end
}

// A VarInit is one name and optional initializer of a VarExpr.
type VarInit struct {
	Name *Ident
	Init Expr // optional
}
