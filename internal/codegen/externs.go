// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

// The host functions an 'extern' declaration can bind to without a
// Kaleidoscope definition: the libm surface the language traditionally
// links against, plus the putchard/printd output helpers. They are not
// callable until a program declares them, so a session that never
// writes 'extern sin(a)' sees no extra names.

import (
	"fmt"
	"math"

	kaleidoscope "github.com/LiarPrincess/Kaleidoscope"
)

func hostFuncs(m *Machine) map[string]kaleidoscope.Callable {
	one := func(f func(float64) float64) kaleidoscope.Callable {
		return func(args ...float64) float64 {
			if len(args) < 1 {
				return math.NaN()
			}
			return f(args[0])
		}
	}
	two := func(f func(_, _ float64) float64) kaleidoscope.Callable {
		return func(args ...float64) float64 {
			if len(args) < 2 {
				return math.NaN()
			}
			return f(args[0], args[1])
		}
	}
	return map[string]kaleidoscope.Callable{
		"sin":   one(math.Sin),
		"cos":   one(math.Cos),
		"tan":   one(math.Tan),
		"asin":  one(math.Asin),
		"acos":  one(math.Acos),
		"atan":  one(math.Atan),
		"exp":   one(math.Exp),
		"log":   one(math.Log),
		"sqrt":  one(math.Sqrt),
		"floor": one(math.Floor),
		"ceil":  one(math.Ceil),
		"fabs":  one(math.Abs),
		"atan2": two(math.Atan2),
		"pow":   two(math.Pow),

		// putchard writes the character whose code is its argument.
		"putchard": func(args ...float64) float64 {
			if len(args) >= 1 {
				fmt.Fprintf(m.out, "%c", rune(args[0]))
			}
			return 0
		},
		// printd writes its argument followed by a newline.
		"printd": func(args ...float64) float64 {
			if len(args) >= 1 {
				fmt.Fprintf(m.out, "%f\n", args[0])
			}
			return 0
		},
	}
}
