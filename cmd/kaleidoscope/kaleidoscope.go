// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The kaleidoscope command interprets a Kaleidoscope file.
// With no arguments and a terminal on stdin, it starts a
// read-eval-print loop (REPL); otherwise it reads a program
// from stdin.
package main // import "github.com/LiarPrincess/Kaleidoscope/cmd/kaleidoscope"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"golang.org/x/term"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
	"github.com/LiarPrincess/Kaleidoscope/internal/codegen"
	"github.com/LiarPrincess/Kaleidoscope/repl"
)

// flags
var (
	cpuprofile = flag.String("cpuprofile", "", "gather Go CPU profile in this file")
	memprofile = flag.String("memprofile", "", "gather Go memory profile in this file")
	execprog   = flag.String("c", "", "execute program `prog`")
	showcode   = flag.Bool("showcode", true, "print a listing of each compiled unit")
)

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("kaleidoscope: ")
	log.SetFlags(0)
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		check(err)
		err = pprof.StartCPUProfile(f)
		check(err)
		defer func() {
			pprof.StopCPUProfile()
			err := f.Close()
			check(err)
		}()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		check(err)
		defer func() {
			runtime.GC()
			err := pprof.Lookup("heap").WriteTo(f, 0)
			check(err)
			err = f.Close()
			check(err)
		}()
	}

	machine := codegen.NewMachine(os.Stdout)
	session := kaleidoscope.NewSession(kaleidoscope.Options{
		Backend:  codegen.NewBackend(machine),
		Machine:  machine,
		ShowCode: *showcode,
	})

	switch {
	case flag.NArg() == 1 || *execprog != "":
		var (
			filename string
			src      interface{}
		)
		if *execprog != "" {
			// Execute provided program.
			filename = "cmdline"
			src = *execprog
		} else {
			// Execute specified file.
			filename = flag.Arg(0)
		}
		if err := session.ExecFile(filename, src); err != nil {
			repl.PrintError(err)
			return 1
		}
	case flag.NArg() == 0:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Println("Welcome to Kaleidoscope (github.com/LiarPrincess/Kaleidoscope)")
			repl.REPL(session)
		} else if err := session.ExecFile("<stdin>", os.Stdin); err != nil {
			repl.PrintError(err)
			return 1
		}
	default:
		log.Print("want at most one Kaleidoscope file name")
		return 1
	}

	return 0
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
