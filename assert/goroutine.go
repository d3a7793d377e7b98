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

// Package assert contains runtime checks that are useful during development
// and testing.
package assert

import (
	"bytes"
	"runtime"
	"strconv"
)

// GetGoRoutineID returns an identify for a goroutine. it returns a result that
// is (a) different between goroutines and (b) consistent for a given
// goroutine. It is undoubtedly useful for but it should only ever be used for
// debugging or testing purposes.
func GetGoRoutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

// Owner records the goroutine that created it. Types that must only ever be
// used from a single goroutine, such as those holding a graphics context,
// can embed an Owner and call IsOwner() at the start of every method.
type Owner struct {
	id uint64
}

// NewOwner returns an Owner for the current goroutine.
func NewOwner() Owner {
	return Owner{id: GetGoRoutineID()}
}

// IsOwner returns true if the current goroutine is the goroutine that
// created the Owner. A zero value Owner is owned by every goroutine.
func (o Owner) IsOwner() bool {
	return o.id == 0 || o.id == GetGoRoutineID()
}
