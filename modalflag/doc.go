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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It provides a convenient method of handling program modes (and
// sub-modes) and allows different flags for each mode.
//
// Whereas, with flag.FlagSet you call Parse() with the array of strings as
// the only argument, with modalflag you first NewArgs() with the array of
// arguments and then Parse() with no arguments:
//
//	md = Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "PLAN", "HOOKS")
//	_, _ = md.Parse()
//
//	switch md.Mode() {
//	case "PLAN":
//		md.NewMode()
//		width := md.AddInt("width", 800, "window width")
//		...
//	}
//
// The first sub-mode in the list is the default sub-mode and is selected if
// the next argument on the command line is not one of the listed sub-modes.
// Sub-mode comparisons are case insensitive.
//
// Once the arguments have been parsed, non-flag arguments can be retrieved
// with the RemainingArgs() or GetArg() function.
//
// Help messages are printed to the Output writer automatically when the -help
// flag is encountered. The ParseHelp result tells the caller that this has
// happened.
package modalflag
