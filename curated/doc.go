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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The Is() function can be used to check whether an error was created by the
// Errorf() function with a specific pattern. The pattern is used to
// differentiate curated errors. For example:
//
//	const UnknownHook = "hook chain %s is unknown"
//	e := curated.Errorf(UnknownHook, "PostCompositingBlit")
//
//	if curated.Is(e, UnknownHook) {
//		fmt.Println("true")
//	}
//
// The Has() function is similar but checks if a pattern occurs somewhere in
// the error chain.
//
// The IsAny() function answers whether the error was created by curated.Errorf().
//
// In addition to the pattern, every curated error belongs to a Category. The
// imaging pipeline distinguishes between errors caused by the caller (User),
// errors caused by the graphics hardware not supporting a requested feature
// (Capability) and errors that should never happen (Internal). Errors made
// with the Errorf() function are Uncategorised. The Userf(), Capabilityf()
// and Internalf() functions create errors of the named category. The category
// of the outermost categorised error in the chain is returned by
// CategoryOf().
//
// The Error() function implementation for curated errors ensures that the
// error chain is normalised. Specifically, that the chain does not contain
// duplicate adjacent parts. For the purposes of this package we think of
// chains as being composed of parts separted by the sub-string ': ' as
// suggested on p239 of "The Go Programming Language" (Donovan, Kernighan).
// For example:
//
//	part 1: part 2: part 3
//
// Sentinal patterns should be stored as a const string, suitably named and
// commented.
package curated
