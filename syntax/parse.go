// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// This file defines a recursive-descent parser for Kaleidoscope.
// Binary expressions are parsed by precedence climbing: a single
// grammar rule threads a minimum-precedence threshold through its
// recursion instead of having one rule per precedence level, which is
// what makes run-time registered operators workable.

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// defaultPrecedence is the binding strength a 'def binary' form gets
// when it does not state one.
const defaultPrecedence = 30

// An OperatorTable maps each infix operator character to its binding
// precedence. Higher numbers bind more tightly. A session seeds its
// table with the built-in operators and extends it as 'def binary'
// forms are compiled; the parser consults the table anew for every
// operator token, so an operator registered while a program runs
// takes effect for all subsequent input.
type OperatorTable struct {
	prec map[rune]int
}

// NewOperatorTable returns a table holding the built-in operators:
// '<' at 10, '+' and '-' at 20, and '*' at 40.
func NewOperatorTable() *OperatorTable {
	return &OperatorTable{prec: map[rune]int{
		'<': 10,
		'+': 20,
		'-': 20,
		'*': 40,
	}}
}

// Precedence returns op's binding strength,
// or -1 if op is not an infix operator.
func (t *OperatorTable) Precedence(op rune) int {
	if prec, ok := t.prec[op]; ok {
		return prec
	}
	return -1
}

// SetPrecedence registers op as an infix operator with the given
// binding strength, overwriting any earlier entry including the
// built-in ones. prec must be positive.
func (t *OperatorTable) SetPrecedence(op rune, prec int) {
	if prec < 1 {
		panic(fmt.Sprintf("syntax: non-positive precedence %d for %q", prec, op))
	}
	t.prec[op] = prec
}

// A Parser holds the state of an in-progress parse of one input
// stream. Successive ParseTopLevel calls return the stream's forms one
// at a time, reading input no further than each form's final token, so
// the caller can compile and run a form before the next one is read.
//
// The only parse state carried between grammar rules is the current
// token; the scanner below it keeps no lookahead either, which is what
// lets a Parser sit directly on an interactive stream.
type Parser struct {
	in     *scanner
	ops    *OperatorTable
	tok    Token
	tokval tokenValue
	primed bool // first token has been read
}

// NewParser creates a parser reading from src.
//
// src may be a string, a []byte, an io.Reader, a
// func() ([]byte, error) returning one line of input per call (as in
// a REPL), or nil, in which case the named file is read.
//
// If ops is nil a fresh table of the built-in operators is used.
// No input is consumed until the first ParseTopLevel call.
func NewParser(filename string, src interface{}, ops *OperatorTable) (*Parser, error) {
	in, err := newScanner(filename, src)
	if err != nil {
		return nil, err
	}
	if ops == nil {
		ops = NewOperatorTable()
	}
	return &Parser{in: in, ops: ops}, nil
}

// Parse parses the entire input and returns its top-level forms.
// It is intended for non-interactive use: operators defined by the
// input do not take effect until the caller compiles them, so a file
// that both defines and uses a binary operator must be fed to a
// Session form by form instead.
func Parse(filename string, src interface{}, ops *OperatorTable) ([]Stmt, error) {
	p, err := NewParser(filename, src, ops)
	if err != nil {
		return nil, err
	}
	var stmts []Stmt
	for {
		stmt, err := p.ParseTopLevel()
		if err == io.EOF {
			return stmts, nil
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// ParseExpr parses a single expression spanning the complete input.
func ParseExpr(filename string, src interface{}, ops *OperatorTable) (x Expr, err error) {
	p, err := NewParser(filename, src, ops)
	if err != nil {
		return nil, err
	}
	defer p.in.recover(&err)
	p.prime()
	x = p.parseExpr()
	if p.tok != EOF {
		p.in.errorf(p.tokval.pos, "got %s, want end of file", p.desc())
	}
	return x, nil
}

// ParseTopLevel parses and returns the next top-level form.
// Bare ';' separators before the form are skipped.
// At end of input it returns io.EOF.
//
// On a parse error the offending token remains current; the caller
// decides how to resynchronize (see Skip).
func (p *Parser) ParseTopLevel() (stmt Stmt, err error) {
	defer p.in.recover(&err)
	p.prime()
	for p.at(';') {
		p.nextToken()
	}
	switch p.tok {
	case EOF:
		return nil, io.EOF
	case DEF:
		return p.parseDefinition(), nil
	case EXTERN:
		return p.parseExtern(), nil
	default:
		return &ExprStmt{X: p.parseExpr()}, nil
	}
}

// Skip discards the current token. The driver calls it after a parse
// error so that one malformed form cannot wedge the session on the
// token that caused the failure.
func (p *Parser) Skip() (err error) {
	defer p.in.recover(&err)
	p.prime()
	if p.tok != EOF {
		p.nextToken()
	}
	return nil
}

// prime reads the first lookahead token. It is deferred until the
// first parse call so that constructing a Parser over an interactive
// stream does not block.
func (p *Parser) prime() {
	if !p.primed {
		p.primed = true
		p.tok = p.in.nextToken(&p.tokval)
	}
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.tok = p.in.nextToken(&p.tokval)
}

// at reports whether the current token is the character c.
func (p *Parser) at(c rune) bool {
	return p.tok == CHAR && p.tokval.char == c
}

// consume checks that the current token is t and advances past it.
func (p *Parser) consume(t Token) Position {
	if p.tok != t {
		p.in.errorf(p.tokval.pos, "got %s, want %s", p.desc(), tokenNames[t])
	}
	pos := p.tokval.pos
	p.nextToken()
	return pos
}

// consumeChar checks that the current token is the character c and
// advances past it.
func (p *Parser) consumeChar(c rune) Position {
	if !p.at(c) {
		p.in.errorf(p.tokval.pos, "got %s, want '%c'", p.desc(), c)
	}
	pos := p.tokval.pos
	p.nextToken()
	return pos
}

// desc describes the current token for error messages.
func (p *Parser) desc() string {
	switch p.tok {
	case IDENT, NUMBER:
		return p.tokval.raw
	case CHAR:
		return fmt.Sprintf("'%c'", p.tokval.char)
	default:
		return p.tok.String()
	}
}

// definition = 'def' prototype expr
func (p *Parser) parseDefinition() Stmt {
	defpos := p.consume(DEF)
	proto := p.parsePrototype()
	body := p.parseExpr()
	return &DefStmt{Def: defpos, Proto: proto, Body: body}
}

// external = 'extern' prototype
func (p *Parser) parseExtern() Stmt {
	extpos := p.consume(EXTERN)
	return &ExternStmt{Extern: extpos, Proto: p.parsePrototype()}
}

// prototype = IDENT '(' IDENT* ')'
//           | 'unary' op '(' IDENT ')'
//           | 'binary' op NUMBER? '(' IDENT IDENT ')'
//
// Parameters are separated by spaces, not commas.
func (p *Parser) parsePrototype() *Prototype {
	proto := &Prototype{NamePos: p.tokval.pos}
	arity := 0 // required parameter count; 0 means any
	switch p.tok {
	case IDENT:
		proto.Name = p.tokval.raw
		p.nextToken()
	case UNARY:
		p.nextToken()
		if p.tok != CHAR {
			p.in.errorf(p.tokval.pos, "expected unary operator character")
		}
		proto.Name = "unary" + string(p.tokval.char)
		proto.IsOperator = true
		arity = 1
		p.nextToken()
	case BINARY:
		p.nextToken()
		if p.tok != CHAR {
			p.in.errorf(p.tokval.pos, "expected binary operator character")
		}
		proto.Name = "binary" + string(p.tokval.char)
		proto.IsOperator = true
		proto.Precedence = defaultPrecedence
		arity = 2
		p.nextToken()
		if p.tok == NUMBER {
			if p.tokval.num < 1 || p.tokval.num > 100 {
				p.in.errorf(p.tokval.pos, "invalid precedence %s: must be 1..100", p.tokval.raw)
			}
			proto.Precedence = int(p.tokval.num)
			p.nextToken()
		}
	default:
		p.in.errorf(p.tokval.pos, "expected function name in prototype")
	}
	p.consumeChar('(')
	for p.tok == IDENT {
		proto.Params = append(proto.Params, &Ident{NamePos: p.tokval.pos, Name: p.tokval.raw})
		p.nextToken()
	}
	proto.Rparen = p.consumeChar(')')
	if arity != 0 && len(proto.Params) != arity {
		p.in.errorf(proto.NamePos, "invalid number of operands for operator %s", proto.Name)
	}
	return proto
}

// expr = unary binrhs
func (p *Parser) parseExpr() Expr {
	lhs := p.parseUnary()
	return p.parseBinaryRHS(0, lhs)
}

// unary = primary | op unary
//
// Any ASCII character token other than '(' or ',' is taken as a unary
// operator; whether a matching 'def unary' exists is checked during
// elaboration, not here. Non-ASCII runes are not operator candidates.
func (p *Parser) parseUnary() Expr {
	if p.tok != CHAR || p.tokval.char == '(' || p.tokval.char == ',' || p.tokval.char >= utf8.RuneSelf {
		return p.parsePrimary()
	}
	pos, op := p.tokval.pos, p.tokval.char
	p.nextToken()
	return &UnaryExpr{OpPos: pos, Op: op, X: p.parseUnary()}
}

// binrhs = (op unary)*
//
// parseBinaryRHS consumes operators of precedence >= minPrec and their
// right operands. When the operator after an operand binds more
// tightly than the current one, the right-hand side is claimed by a
// recursive call with threshold prec+1; equal-precedence runs
// therefore group left-associatively.
func (p *Parser) parseBinaryRHS(minPrec int, lhs Expr) Expr {
	for {
		prec := p.precedence()
		if prec < minPrec {
			return lhs
		}
		pos, op := p.tokval.pos, p.tokval.char
		p.nextToken()
		rhs := p.parseUnary()
		if next := p.precedence(); prec < next {
			rhs = p.parseBinaryRHS(prec+1, rhs)
		}
		lhs = &BinaryExpr{X: lhs, OpPos: pos, Op: op, Y: rhs}
	}
}

// precedence returns the binding strength of the current token,
// or -1 if it is not a registered infix operator.
func (p *Parser) precedence() int {
	if p.tok != CHAR {
		return -1
	}
	return p.ops.Precedence(p.tokval.char)
}

// primary = NUMBER
//         | IDENT
//         | IDENT '(' (expr (',' expr)*)? ')'
//         | '(' expr ')'
//         | 'if' expr 'then' expr 'else' expr
//         | 'for' IDENT '=' expr ',' expr (',' expr)? 'in' expr
//         | 'var' IDENT ('=' expr)? (',' IDENT ('=' expr)?)* 'in' expr
func (p *Parser) parsePrimary() Expr {
	switch p.tok {
	case NUMBER:
		x := &NumberExpr{TokenPos: p.tokval.pos, Raw: p.tokval.raw, Value: p.tokval.num}
		p.nextToken()
		return x
	case IDENT:
		return p.parseIdentExpr()
	case IF:
		return p.parseIfExpr()
	case FOR:
		return p.parseForExpr()
	case VAR:
		return p.parseVarExpr()
	case CHAR:
		if p.tokval.char == '(' {
			p.nextToken()
			x := p.parseExpr()
			p.consumeChar(')')
			return x
		}
	}
	p.in.errorf(p.tokval.pos, "got %s, want expression", p.desc())
	panic("unreachable")
}

// identexpr = IDENT | IDENT '(' (expr (',' expr)*)? ')'
func (p *Parser) parseIdentExpr() Expr {
	id := &Ident{NamePos: p.tokval.pos, Name: p.tokval.raw}
	p.nextToken()
	if !p.at('(') {
		return id // variable reference
	}
	call := &CallExpr{Func: id, Lparen: p.tokval.pos}
	p.nextToken()
	if !p.at(')') {
		for {
			call.Args = append(call.Args, p.parseExpr())
			if p.at(')') {
				break
			}
			p.consumeChar(',')
		}
	}
	call.Rparen = p.tokval.pos
	p.nextToken()
	return call
}

// ifexpr = 'if' expr 'then' expr 'else' expr
func (p *Parser) parseIfExpr() Expr {
	ifpos := p.consume(IF)
	cond := p.parseExpr()
	p.consume(THEN)
	truebr := p.parseExpr()
	p.consume(ELSE)
	return &IfExpr{If: ifpos, Cond: cond, True: truebr, False: p.parseExpr()}
}

// forexpr = 'for' IDENT '=' expr ',' expr (',' expr)? 'in' expr
func (p *Parser) parseForExpr() Expr {
	forpos := p.consume(FOR)
	if p.tok != IDENT {
		p.in.errorf(p.tokval.pos, "expected identifier after for")
	}
	v := &Ident{NamePos: p.tokval.pos, Name: p.tokval.raw}
	p.nextToken()
	p.consumeChar('=')
	start := p.parseExpr()
	p.consumeChar(',')
	end := p.parseExpr()
	var step Expr
	if p.at(',') {
		p.nextToken()
		step = p.parseExpr()
	}
	p.consume(IN)
	return &ForExpr{For: forpos, Var: v, Start: start, End: end, Step: step, Body: p.parseExpr()}
}

// varexpr = 'var' IDENT ('=' expr)? (',' IDENT ('=' expr)?)* 'in' expr
func (p *Parser) parseVarExpr() Expr {
	varpos := p.consume(VAR)
	var names []VarInit
	if p.tok != IDENT {
		p.in.errorf(p.tokval.pos, "expected identifier after var")
	}
	for {
		nv := VarInit{Name: &Ident{NamePos: p.tokval.pos, Name: p.tokval.raw}}
		p.nextToken()
		if p.at('=') {
			p.nextToken()
			nv.Init = p.parseExpr()
		}
		names = append(names, nv)
		if !p.at(',') {
			break
		}
		p.nextToken()
		if p.tok != IDENT {
			p.in.errorf(p.tokval.pos, "expected identifier list after var")
		}
	}
	p.consume(IN)
	return &VarExpr{Var: varpos, Names: names, Body: p.parseExpr()}
}
