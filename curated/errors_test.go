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

package curated_test

import (
	"errors"
	"testing"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/test"
)

const testError = "test error: %s"
const testErrorB = "test error B: %s"

func TestDuplicateErrors(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	test.ExpectEquality(t, e.Error(), "test error: foo")

	// packing errors of the same type next to each other causes
	// one of them to be dropped
	f := curated.Errorf(testError, e)
	test.ExpectEquality(t, f.Error(), "test error: foo")
}

func TestIs(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	test.ExpectSuccess(t, curated.Is(e, testError))
	test.ExpectFailure(t, curated.Is(e, testErrorB))

	// Has() should fail because we haven't included testErrorB anywhere in the error
	test.ExpectFailure(t, curated.Has(e, testErrorB))

	// packing errors of the same type next to each other causes
	// one of them to be dropped
	f := curated.Errorf(testErrorB, e)
	test.ExpectFailure(t, curated.Is(f, testError))
	test.ExpectSuccess(t, curated.Is(f, testErrorB))
	test.ExpectSuccess(t, curated.Has(f, testError))
	test.ExpectSuccess(t, curated.Has(f, testErrorB))

	// no curated errors
	test.ExpectFailure(t, curated.Is(nil, testError))
	test.ExpectFailure(t, curated.Has(nil, testError))
	test.ExpectFailure(t, curated.IsAny(nil))
	test.ExpectFailure(t, curated.IsAny(errors.New("plain")))
}

func TestWrapping(t *testing.T) {
	plain := errors.New("plain")
	e := curated.Errorf(testError, plain)
	test.ExpectEquality(t, e.Error(), "test error: plain")
	test.ExpectSuccess(t, errors.Is(e, plain))
	test.ExpectSuccess(t, curated.IsAny(e))
}

func TestCategory(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	test.ExpectEquality(t, curated.CategoryOf(e), curated.Uncategorised)

	e = curated.Capabilityf(testError, "foo")
	test.ExpectEquality(t, curated.CategoryOf(e), curated.Capability)

	// outer uncategorised errors do not hide the category of the inner error
	f := curated.Errorf(testErrorB, e)
	test.ExpectEquality(t, curated.CategoryOf(f), curated.Capability)

	// the outermost categorised error wins
	g := curated.Userf(testErrorB, curated.Internalf(testError, "foo"))
	test.ExpectEquality(t, curated.CategoryOf(g), curated.User)
	test.ExpectEquality(t, curated.CategoryOf(nil), curated.Uncategorised)
	test.ExpectEquality(t, curated.User.String(), "user")
}
