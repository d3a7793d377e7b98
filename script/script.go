// This file is part of Imagingpipe.
//
// Imagingpipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Imagingpipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Imagingpipe.  If not, see <https://www.gnu.org/licenses/>.

package script

import (
	"fmt"
	"io"
	"reflect"

	"github.com/cogentcore/yaegi/interp"
	"github.com/cogentcore/yaegi/stdlib"
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/logger"
)

// Sentinal error patterns
const (
	InitFailed = "script: init: %v"
	EvalFailed = "script: %s: %v"
)

const logTag = "script"

// the import path of the hook package as seen by expressions
const hookImport = "imagingpipe/hook"

// Evaluator runs the expressions of script hook functions. It is not safe
// for concurrent use.
type Evaluator struct {
	interp *interp.Interpreter
	output io.Writer

	// the invocation for the expression currently being evaluated
	current *hooks.Invocation

	// permission for the debug log entry made before each evaluation
	Debug logger.Permission
}

// NewEvaluator is the preferred method of initialisation for the Evaluator
// type. Output from expressions is written to the io.Writer, which can be
// nil.
func NewEvaluator(output io.Writer) (*Evaluator, error) {
	if output == nil {
		output = io.Discard
	}

	e := &Evaluator{
		output: output,
		Debug:  logger.Deny,
	}

	e.interp = interp.New(interp.Options{
		Stdout: output,
		Stderr: output,
	})

	if err := e.interp.Use(stdlib.Symbols); err != nil {
		return nil, curated.Internalf(InitFailed, err)
	}
	if err := e.interp.Use(e.exports()); err != nil {
		return nil, curated.Internalf(InitFailed, err)
	}
	if _, err := e.interp.Eval(fmt.Sprintf("import %q", hookImport)); err != nil {
		return nil, curated.Internalf(InitFailed, err)
	}

	return e, nil
}

func (e *Evaluator) exports() interp.Exports {
	inv := func() *hooks.Invocation {
		if e.current == nil {
			return &hooks.Invocation{}
		}
		return e.current
	}

	return interp.Exports{
		hookImport + "/hook": map[string]reflect.Value{
			"Chain": reflect.ValueOf(func() string {
				if e.current == nil {
					return ""
				}
				return e.current.Point.String()
			}),
			"Slot":   reflect.ValueOf(func() int { return inv().Slot }),
			"ID":     reflect.ValueOf(func() string { return inv().ID }),
			"Source": reflect.ValueOf(func() int { return inv().Source }),
			"Dest":   reflect.ValueOf(func() int { return inv().Dest }),
			"SecondSource": reflect.ValueOf(func() (int, bool) {
				i := inv()
				return i.SecondSource, i.SecondSourceTarget != nil
			}),
			"Width": reflect.ValueOf(func() int {
				if rt := inv().DestTarget; rt != nil {
					return int(rt.Width)
				}
				return 0
			}),
			"Height": reflect.ValueOf(func() int {
				if rt := inv().DestTarget; rt != nil {
					return int(rt.Height)
				}
				return 0
			}),
			"UserData": reflect.ValueOf(func() any { return inv().UserData }),
			"Print": reflect.ValueOf(func(a ...any) {
				fmt.Fprintln(e.output, a...)
			}),
		},
	}
}

// Evaluate the expression. The invocation is available to the expression
// through the hook package. The function blocks until the expression has
// completed.
func (e *Evaluator) Evaluate(expr string, inv *hooks.Invocation) (err error) {
	e.current = inv
	defer func() {
		e.current = nil
		if r := recover(); r != nil {
			err = curated.Userf(EvalFailed, id(inv), r)
		}
	}()

	logger.Logf(e.Debug, logTag, "evaluating %q for %s", expr, id(inv))

	if _, err := e.interp.Eval(expr); err != nil {
		return curated.Userf(EvalFailed, id(inv), err)
	}
	return nil
}

func id(inv *hooks.Invocation) string {
	if inv == nil {
		return "no invocation"
	}
	return fmt.Sprintf("%s slot %d (%s)", inv.Point, inv.Slot, inv.ID)
}
