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

// Package test contains helper functions to remove common boilerplate to make
// testing easier.
//
// The ExpectSuccess and ExpectFailure functions test for failure and success
// under generic conditions. The documentation for those functions describe
// the currently supported types.
//
// It is worth describing how the "Expect" functions handle the nil type
// because it is not obvious. The nil type is considered a success and
// consequently will cause ExpectFailure to fail and ExpectSuccess to
// succeed. This may not be how we want to interpret nil in all situations but
// because of how errors usually works (nil to indicate no error) we *need* to
// interpret nil in this way.
//
// The "Demand" functions are the same as the "Expect" functions except that
// the test is stopped immediately on failure. Use them when continuing the
// test would be meaningless, for example when a value is required for the
// remainder of the test.
//
// The ExpectEquality() function compares like-typed variables for equality.
package test
