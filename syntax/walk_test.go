// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax_test

import (
	"bytes"
	"fmt"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

func TestWalk(t *testing.T) {
	const src = `def fib(x) if x < 2 then x else fib(x - 1) + fib(x - 2)`
	stmts, err := syntax.Parse("hello.kal", src, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	var depth int
	syntax.Walk(stmts[0], func(n syntax.Node) bool {
		if n == nil {
			depth--
			return true
		}
		fmt.Fprintf(&buf, "%s%s\n",
			strings.Repeat("  ", depth),
			strings.TrimPrefix(reflect.TypeOf(n).String(), "*syntax."))
		depth++
		return true
	})
	got := buf.String()
	want := `
DefStmt
  Prototype
    Ident
  IfExpr
    BinaryExpr
      Ident
      NumberExpr
    Ident
    BinaryExpr
      CallExpr
        Ident
        BinaryExpr
          Ident
          NumberExpr
      CallExpr
        Ident
        BinaryExpr
          Ident
          NumberExpr`
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

// ExampleWalk demonstrates the use of Walk to
// enumerate the identifiers in a source file.
func ExampleWalk() {
	const src = `
extern a(b)
def c(d e) for f = d, f < e in a(g + f)
var h = 1, i in if h then i else j
`
	stmts, err := syntax.Parse("hello.kal", src, nil)
	if err != nil {
		log.Fatal(err)
	}

	var idents []string
	for _, stmt := range stmts {
		syntax.Walk(stmt, func(n syntax.Node) bool {
			if id, ok := n.(*syntax.Ident); ok {
				idents = append(idents, id.Name)
			}
			return true
		})
	}
	fmt.Println(strings.Join(idents, " "))

	// Output:
	// b d e f d f e a g f h i h i j
}
