// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kaleidoscope_test

import (
	"log"
	"os"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
	"github.com/LiarPrincess/Kaleidoscope/internal/codegen"
)

// ExampleSession runs a small program through a session: the
// definition stays loaded, the bare expression is compiled, run, and
// reported.
func ExampleSession() {
	machine := codegen.NewMachine(os.Stdout)
	session := kaleidoscope.NewSession(kaleidoscope.Options{
		Backend:  codegen.NewBackend(machine),
		Machine:  machine,
		Output:   os.Stdout,
		ShowCode: true,
	})
	err := session.ExecFile("example.kal", `
def fib(x) if x < 2 then x else fib(x - 1) + fib(x - 2)
fib(10)
`)
	if err != nil {
		log.Fatal(err)
	}

	// Output:
	// Read function definition:
	// def fib(x) if (x < 2) then x else (fib((x - 1)) + fib((x - 2)))
	// Read top-level expression:
	// def __anon_expr() fib(10)
	// Evaluated to 55.000000
}
