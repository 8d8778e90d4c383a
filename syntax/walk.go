// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// Walk traverses a syntax tree in depth-first order.
// It starts by calling f(n); n must not be nil.
// If f returns true, Walk calls itself
// recursively for each non-nil child of n,
// then calls f(nil).
func Walk(n Node, f func(Node) bool) {
	if n == nil {
		panic("nil")
	}
	if !f(n) {
		return
	}

	switch n := n.(type) {
	case *DefStmt:
		Walk(n.Proto, f)
		Walk(n.Body, f)

	case *ExternStmt:
		Walk(n.Proto, f)

	case *ExprStmt:
		Walk(n.X, f)

	case *Prototype:
		for _, param := range n.Params {
			Walk(param, f)
		}

	case *NumberExpr, *Ident:
		// no-op

	case *UnaryExpr:
		Walk(n.X, f)

	case *BinaryExpr:
		Walk(n.X, f)
		Walk(n.Y, f)

	case *CallExpr:
		Walk(n.Func, f)
		for _, arg := range n.Args {
			Walk(arg, f)
		}

	case *IfExpr:
		Walk(n.Cond, f)
		Walk(n.True, f)
		Walk(n.False, f)

	case *ForExpr:
		Walk(n.Var, f)
		Walk(n.Start, f)
		Walk(n.End, f)
		if n.Step != nil {
			Walk(n.Step, f)
		}
		Walk(n.Body, f)

	case *VarExpr:
		for _, nv := range n.Names {
			Walk(nv.Name, f)
			if nv.Init != nil {
				Walk(nv.Init, f)
			}
		}
		Walk(n.Body, f)

	default:
		panic(n)
	}

	f(nil)
}
