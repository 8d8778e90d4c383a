// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax_test

import (
	"testing"

	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

func TestFormatExpr(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`1 + 2 * 3`, `(1 + (2 * 3))`},
		{`(1 + 2) * 3`, `((1 + 2) * 3)`},
		{`-x + !y`, `(-x + !y)`},
		{`foo(a, b + 1)`, `foo(a, (b + 1))`},
		{`if x < 0 then 0 - x else x`, `if (x < 0) then (0 - x) else x`},
		{`for i = 1, i < n, 2 in printd(i)`, `for i = 1, (i < n), 2 in printd(i)`},
		{`var a = 1, b in a + b`, `var a = 1, b in (a + b)`},
		{`0.5`, `0.5`},
	} {
		x, err := syntax.ParseExpr("fmt.kal", test.input, nil)
		if err != nil {
			t.Errorf("parse `%s` failed: %v", test.input, err)
			continue
		}
		if got := syntax.FormatExpr(x); got != test.want {
			t.Errorf("FormatExpr(`%s`) = %s, want %s", test.input, got, test.want)
		}
	}
}

func TestFormatProto(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`def fib(x) 0`, `fib(x)`},
		{`def avg(a b c) 0`, `avg(a b c)`},
		{`def nullary() 0`, `nullary()`},
		{`def binary| 5 (a b) 0`, `binary| 5 (a b)`},
		{`def binary& (a b) 0`, `binary& 30 (a b)`},
		{`def unary!(v) 0`, `unary!(v)`},
	} {
		stmts, err := syntax.Parse("fmt.kal", test.input, nil)
		if err != nil {
			t.Fatalf("parse `%s` failed: %v", test.input, err)
		}
		proto := stmts[0].(*syntax.DefStmt).Proto
		if got := syntax.FormatProto(proto); got != test.want {
			t.Errorf("FormatProto(`%s`) = %s, want %s", test.input, got, test.want)
		}
	}
}
