// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides a read/eval/print loop for Kaleidoscope.
//
// It supports readline-style command editing, and multi-line forms
// through a continuation prompt. Each top-level form is compiled as
// soon as its final token has been read, so a definition (including an
// operator definition, which changes how later input parses) takes
// effect immediately, and a bare expression is executed and its value
// printed.
package repl // import "github.com/LiarPrincess/Kaleidoscope/repl"

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

// REPL executes a read, eval, print loop over the session.
//
// Control-C during input abandons the form being typed; the session
// and everything defined in it survive. End of input (Control-D)
// leaves the loop.
func REPL(s *kaleidoscope.Session) {
	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()

	// readline returns EOF, ErrInterrupt, or a line including "\n".
	// The first read of each form uses the ">>> " prompt; any further
	// lines the form needs are requested under "... ".
	read := func() ([]byte, error) {
		line, err := rl.Readline()
		rl.SetPrompt("... ")
		if err != nil {
			if err == readline.ErrInterrupt {
				return nil, fmt.Errorf("interrupted")
			}
			return nil, io.EOF
		}
		return []byte(line + "\n"), nil
	}

	p, err := syntax.NewParser("<stdin>", read, s.Operators())
	if err != nil {
		PrintError(err)
		return
	}

	for {
		rl.SetPrompt(">>> ")
		if err := s.Step(p); err != nil {
			if err != io.EOF {
				PrintError(err)
			}
			break
		}
	}
	fmt.Println()
}

// PrintError prints the error to stderr, colorized when stderr is a
// terminal.
func PrintError(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, err)
}
