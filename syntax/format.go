// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// Source-like rendering of syntax trees, used for unit listings and
// diagnostics. Binary and unary applications are fully parenthesized
// so the rendering is unambiguous without knowing the operator table
// it was parsed under.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// FormatExpr returns a source-like rendering of an expression.
func FormatExpr(x Expr) string {
	var buf bytes.Buffer
	writeExpr(&buf, x)
	return buf.String()
}

// FormatProto returns a source-like rendering of a prototype,
// e.g. "fib(x)" or "binary| 5 (a b)".
func FormatProto(proto *Prototype) string {
	var params []string
	for _, p := range proto.Params {
		params = append(params, p.Name)
	}
	if proto.IsOperator && len(proto.Params) == 2 {
		return fmt.Sprintf("%s %d (%s)", proto.Name, proto.Precedence, strings.Join(params, " "))
	}
	return fmt.Sprintf("%s(%s)", proto.Name, strings.Join(params, " "))
}

func writeExpr(buf *bytes.Buffer, x Expr) {
	switch x := x.(type) {
	case *NumberExpr:
		buf.WriteString(strconv.FormatFloat(x.Value, 'g', -1, 64))

	case *Ident:
		buf.WriteString(x.Name)

	case *UnaryExpr:
		fmt.Fprintf(buf, "%c", x.Op)
		writeExpr(buf, x.X)

	case *BinaryExpr:
		buf.WriteByte('(')
		writeExpr(buf, x.X)
		fmt.Fprintf(buf, " %c ", x.Op)
		writeExpr(buf, x.Y)
		buf.WriteByte(')')

	case *CallExpr:
		buf.WriteString(x.Func.Name)
		buf.WriteByte('(')
		for i, arg := range x.Args {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeExpr(buf, arg)
		}
		buf.WriteByte(')')

	case *IfExpr:
		buf.WriteString("if ")
		writeExpr(buf, x.Cond)
		buf.WriteString(" then ")
		writeExpr(buf, x.True)
		buf.WriteString(" else ")
		writeExpr(buf, x.False)

	case *ForExpr:
		buf.WriteString("for ")
		buf.WriteString(x.Var.Name)
		buf.WriteString(" = ")
		writeExpr(buf, x.Start)
		buf.WriteString(", ")
		writeExpr(buf, x.End)
		if x.Step != nil {
			buf.WriteString(", ")
			writeExpr(buf, x.Step)
		}
		buf.WriteString(" in ")
		writeExpr(buf, x.Body)

	case *VarExpr:
		buf.WriteString("var ")
		for i, nv := range x.Names {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(nv.Name.Name)
			if nv.Init != nil {
				buf.WriteString(" = ")
				writeExpr(buf, nv.Init)
			}
		}
		buf.WriteString(" in ")
		writeExpr(buf, x.Body)

	default:
		panic(x)
	}
}
