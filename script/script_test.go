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

package script_test

import (
	"strings"
	"testing"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/rendertarget"
	"github.com/stimkit/imagingpipe/script"
	"github.com/stimkit/imagingpipe/test"
)

func TestInvocation(t *testing.T) {
	w := &strings.Builder{}
	e, err := script.NewEvaluator(w)
	test.DemandSuccess(t, err)

	inv := &hooks.Invocation{
		Point:      hooks.PostCompositingBlit,
		Slot:       2,
		ID:         "gamma",
		Source:     3,
		Dest:       4,
		DestTarget: &rendertarget.RenderTarget{Width: 800, Height: 600},
		UserData:   "hello",
	}

	err = e.Evaluate(`hook.Print(hook.Chain(), hook.Slot(), hook.ID())`, inv)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, w.String(), "PostCompositingBlit 2 gamma\n")

	w.Reset()
	err = e.Evaluate(`hook.Print(hook.Source(), hook.Dest(), hook.Width(), hook.Height(), hook.UserData())`, inv)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, w.String(), "3 4 800 600 hello\n")

	w.Reset()
	err = e.Evaluate(`idx, ok := hook.SecondSource(); hook.Print(idx, ok)`, inv)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, w.String(), "0 false\n")

	inv.SecondSource = 1
	inv.SecondSourceTarget = &rendertarget.RenderTarget{Width: 800, Height: 600}
	w.Reset()
	err = e.Evaluate(`right, merging := hook.SecondSource(); hook.Print(right, merging)`, inv)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, w.String(), "1 true\n")
}

func TestNoInvocation(t *testing.T) {
	w := &strings.Builder{}
	e, err := script.NewEvaluator(w)
	test.DemandSuccess(t, err)

	err = e.Evaluate(`hook.Print(hook.Chain() == "", hook.Width())`, nil)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, w.String(), "true 0\n")
}

func TestDeclarations(t *testing.T) {
	w := &strings.Builder{}
	e, err := script.NewEvaluator(w)
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, e.Evaluate(`var frames int`, nil))
	test.ExpectSuccess(t, e.Evaluate(`frames++`, nil))
	test.ExpectSuccess(t, e.Evaluate(`frames++`, nil))
	test.ExpectSuccess(t, e.Evaluate(`hook.Print(frames)`, nil))
	test.ExpectEquality(t, w.String(), "2\n")
}

func TestStdlib(t *testing.T) {
	w := &strings.Builder{}
	e, err := script.NewEvaluator(w)
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, e.Evaluate(`import "strings"`, nil))
	test.ExpectSuccess(t, e.Evaluate(`hook.Print(strings.ToUpper("abc"))`, nil))
	test.ExpectEquality(t, w.String(), "ABC\n")
}

func TestErrors(t *testing.T) {
	e, err := script.NewEvaluator(nil)
	test.DemandSuccess(t, err)

	inv := &hooks.Invocation{Point: hooks.FinalOutputFormattingBlit, ID: "bad"}

	err = e.Evaluate(`this is not go`, inv)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, script.EvalFailed))
	test.ExpectEquality(t, curated.CategoryOf(err), curated.User)

	err = e.Evaluate(`undefinedFunction()`, inv)
	test.ExpectSuccess(t, curated.Is(err, script.EvalFailed))

	// the evaluator is still usable after an error
	test.ExpectSuccess(t, e.Evaluate(`x := 1; _ = x`, inv))
}
