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

// Package hooks implements the hook chains of the imaging pipeline. A hook
// chain is a named insertion point in the rendering sequence of a window. Each
// chain holds an ordered list of hook functions and can be enabled or
// disabled as a whole.
//
// The names of the hook chains are fixed. The Catalog() function lists them
// along with a one line synopsis. Every function in the Registry type that
// takes a chain name returns an error made with the UnknownHook pattern if
// the name is not in the catalog.
//
// A hook function is one of four kinds, indicated by the type of its Payload:
//
//	Shader   a shader program, lookup texture and blitter configuration
//	Native   a Go function
//	Script   an expression for the scripting runtime
//	Builtin  one of the built-in operations, selected by the ID of the function
//
// Execution of hook chains is the responsibility of the imaging package.
package hooks
