// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kaleidoscope

import (
	"fmt"

	"github.com/LiarPrincess/Kaleidoscope/syntax"
)

// An EvalError is an error in the elaboration of a top-level form:
// an unknown variable or function, an operator used but never
// declared, an arity mismatch, or a redefinition. Parse errors are
// reported as syntax.Error; both are recovered per top-level form by
// the session driver rather than ending the session.
type EvalError struct {
	Pos syntax.Position
	Msg string
}

func (e *EvalError) Error() string { return e.Pos.String() + ": " + e.Msg }

// Errorf returns an EvalError at the given position.
func Errorf(pos syntax.Position, format string, args ...interface{}) *EvalError {
	return &EvalError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
