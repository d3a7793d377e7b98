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

package test

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// id returns a prefix string for failure messages built from the optional
// tags
func id(tags ...any) string {
	if len(tags) == 0 {
		return ""
	}
	s := make([]string, 0, len(tags))
	for _, t := range tags {
		s = append(s, fmt.Sprintf("%v", t))
	}
	return fmt.Sprintf("%s: ", strings.Join(s, ": "))
}

// expect is the underlying success test for the Expect and Demand functions.
// it returns true if v indicates success
func expect(t *testing.T, v any, tags ...any) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		return v
	case error:
		return v == nil
	case nil:
		return true
	default:
		t.Fatalf("%sunsupported type (%T) for expectation testing", id(tags...), v)
	}

	return false
}

// ExpectSuccess tests argument v for a success condition suitable for it's
// type. Currently support types:
//
//	bool -> bool == true
//	error -> error == nil
//
// If type is nil then the test will succeed
func ExpectSuccess(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	if !expect(t, v, tags...) {
		if err, ok := v.(error); ok {
			t.Errorf("%sexpected success (error: %v)", id(tags...), err)
		} else {
			t.Errorf("%sexpected success (%T)", id(tags...), v)
		}
		return false
	}
	return true
}

// ExpectFailure tests argument v for a failure condition suitable for it's
// type. Currently support types:
//
//	bool -> bool == false
//	error -> error != nil
//
// If type is nil then the test will fail
func ExpectFailure(t *testing.T, v any, tags ...any) bool {
	t.Helper()
	if expect(t, v, tags...) {
		t.Errorf("%sexpected failure (%T)", id(tags...), v)
		return false
	}
	return true
}

// ExpectEquality is used to test equality between one value and another
func ExpectEquality[T comparable](t *testing.T, v T, expectedValue T, tags ...any) bool {
	t.Helper()
	if v != expectedValue {
		t.Errorf("%sequality test of type %T failed: '%v' does not equal '%v'", id(tags...), v, v, expectedValue)
		return false
	}
	return true
}

// ExpectInequality is used to test inequality between one value and another.
// In other words, the test does not want the values to be equal
func ExpectInequality[T comparable](t *testing.T, v T, expectedValue T, tags ...any) bool {
	t.Helper()
	if v == expectedValue {
		t.Errorf("%sinequality test of type %T failed: '%v' does equal '%v'", id(tags...), v, v, expectedValue)
		return false
	}
	return true
}

// ExpectApproximate is used to test approximate equality between one value
// and another. Tolerance is a fraction of the expected value
func ExpectApproximate(t *testing.T, v float64, expectedValue float64, tolerance float64, tags ...any) bool {
	t.Helper()
	bound := math.Abs(expectedValue * tolerance)
	if v < expectedValue-bound || v > expectedValue+bound {
		t.Errorf("%sapproximation test failed: '%v' is not within %v of '%v'", id(tags...), v, tolerance, expectedValue)
		return false
	}
	return true
}
