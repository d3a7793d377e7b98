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

// Package script evaluates the expressions of script hook functions. The
// expressions are Go source code interpreted by yaegi.
//
// Every expression has access to the standard library and to the "hook"
// package, which describes the hook function that is being executed:
//
//	hook.Chain() string       name of the hook chain
//	hook.Slot() int           slot of the function in the chain
//	hook.ID() string          id of the function
//	hook.Source() int         index of the source render target
//	hook.Dest() int           index of the destination render target
//	hook.SecondSource() (int, bool)
//	                          index of the right view when merging a stereo
//	                          pair. false if there is no second source
//	hook.Width() int          width of the destination render target
//	hook.Height() int         height of the destination render target
//	hook.UserData() any       value passed to ExecuteHook()
//	hook.Print(a ...any)      write to the output of the evaluator
//
// Declarations made by one expression are visible to later expressions
// evaluated by the same Evaluator.
package script
