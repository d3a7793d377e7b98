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

package prefs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/prefs"
	"github.com/stimkit/imagingpipe/test"
)

func tmpPrefFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "imagingpipe_prefs_test.toml")
}

func TestBool(t *testing.T) {
	var v prefs.Bool
	test.ExpectEquality(t, v.Get().(bool), false)
	test.ExpectSuccess(t, v.Set(true))
	test.ExpectEquality(t, v.String(), "true")
	test.ExpectSuccess(t, v.Set("foo"))
	test.ExpectEquality(t, v.Get().(bool), false)
	test.ExpectSuccess(t, v.Set("TRUE"))
	test.ExpectEquality(t, v.Get().(bool), true)
	test.ExpectFailure(t, v.Set(10))
	test.ExpectSuccess(t, v.Reset())
	test.ExpectEquality(t, v.Get().(bool), false)
}

func TestInt(t *testing.T) {
	var v prefs.Int
	test.ExpectEquality(t, v.String(), "0")
	test.ExpectSuccess(t, v.Set(10))
	test.ExpectEquality(t, v.Get().(int), 10)
	test.ExpectSuccess(t, v.Set(" 99 "))
	test.ExpectEquality(t, v.Get().(int), 99)
	test.ExpectSuccess(t, v.Set(int64(3)))
	test.ExpectEquality(t, v.Get().(int), 3)

	err := v.Set("foo")
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.IsAny(err))

	// failed set does not change the value
	test.ExpectEquality(t, v.Get().(int), 3)
	test.ExpectFailure(t, v.Set(1.5))
}

func TestFloat(t *testing.T) {
	var v prefs.Float
	test.ExpectEquality(t, v.String(), "0.000")
	test.ExpectSuccess(t, v.Set(1.25))
	test.ExpectEquality(t, v.String(), "1.250")
	test.ExpectSuccess(t, v.Set("0.5"))
	test.ExpectEquality(t, v.Get().(float64), 0.5)
	test.ExpectFailure(t, v.Set("foo"))
}

func TestString(t *testing.T) {
	var v prefs.String
	test.ExpectSuccess(t, v.Set("hello world"))
	test.ExpectEquality(t, v.String(), "hello world")
	v.SetMaxLen(5)
	test.ExpectEquality(t, v.String(), "hello")
	test.ExpectSuccess(t, v.Set("abcdefgh"))
	test.ExpectEquality(t, v.String(), "abcde")
	v.SetMaxLen(0)
	test.ExpectSuccess(t, v.Set(42))
	test.ExpectEquality(t, v.String(), "42")
}

func TestHooks(t *testing.T) {
	var v prefs.Int
	var post int

	v.SetHookPre(func(nv prefs.Value) error {
		if nv.(int) < 0 {
			return curated.Errorf("negative")
		}
		return nil
	})
	v.SetHookPost(func(nv prefs.Value) error {
		post = nv.(int)
		return nil
	})

	test.ExpectSuccess(t, v.Set(5))
	test.ExpectEquality(t, post, 5)

	// pre hook prevents the value from changing
	test.ExpectFailure(t, v.Set(-1))
	test.ExpectEquality(t, v.Get().(int), 5)
	test.ExpectEquality(t, post, 5)
}

func TestDisk(t *testing.T) {
	fn := tmpPrefFile(t)

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var b prefs.Bool
	var i prefs.Int
	var s prefs.String
	test.ExpectSuccess(t, dsk.Add("imaging.enable3d", &b))
	test.ExpectSuccess(t, dsk.Add("imaging.verbosity", &i))
	test.ExpectSuccess(t, dsk.Add("imaging.name", &s))
	test.ExpectFailure(t, dsk.Add("imaging.name", &s))

	// load from a file that doesn't exist is not an error
	test.ExpectSuccess(t, dsk.Load())

	test.ExpectSuccess(t, b.Set(true))
	test.ExpectSuccess(t, i.Set(4))
	test.ExpectSuccess(t, s.Set("stimulus"))
	test.ExpectSuccess(t, dsk.Save())

	data, err := os.ReadFile(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.HasPrefix(string(data), prefs.WarningBoilerPlate))

	test.ExpectSuccess(t, dsk.Reset())
	test.ExpectEquality(t, i.Get().(int), 0)

	test.ExpectSuccess(t, dsk.Load())
	test.ExpectEquality(t, b.Get().(bool), true)
	test.ExpectEquality(t, i.Get().(int), 4)
	test.ExpectEquality(t, s.String(), "stimulus")
}

func TestDiskPreservesUnknownKeys(t *testing.T) {
	fn := tmpPrefFile(t)

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	var i prefs.Int
	test.ExpectSuccess(t, dsk.Add("a", &i))
	test.ExpectSuccess(t, i.Set(1))
	test.ExpectSuccess(t, dsk.Save())

	// a second disk instance with a different set of keys
	dsk2, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	var j prefs.Int
	test.ExpectSuccess(t, dsk2.Add("b", &j))
	test.ExpectSuccess(t, j.Set(2))
	test.ExpectSuccess(t, dsk2.Save())

	test.ExpectSuccess(t, i.Set(0))
	test.ExpectSuccess(t, dsk.Load())
	test.ExpectEquality(t, i.Get().(int), 1)
}

func TestDiskCommandLine(t *testing.T) {
	fn := tmpPrefFile(t)

	prefs.PushCommandLineStack("imaging.verbosity::9; unused::1")
	defer prefs.PopCommandLineStack()

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var i prefs.Int
	test.ExpectSuccess(t, dsk.Add("imaging.verbosity", &i))
	test.ExpectEquality(t, i.Get().(int), 9)

	// the value in the file does not replace the command line value
	var j prefs.Int
	test.ExpectSuccess(t, j.Set(2))
	other, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, other.Add("imaging.verbosity", &j))
	test.ExpectSuccess(t, other.Save())

	test.ExpectSuccess(t, dsk.Load())
	test.ExpectEquality(t, i.Get().(int), 9)
}

func TestNewDiskNoPath(t *testing.T) {
	_, err := prefs.NewDisk("")
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.CategoryOf(err), curated.User)
}

func TestDiskWatch(t *testing.T) {
	fn := tmpPrefFile(t)

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var i prefs.Int
	test.DemandSuccess(t, dsk.Add("imaging.verbosity", &i))

	w, err := dsk.Watch()
	test.DemandSuccess(t, err)
	defer func() {
		test.ExpectSuccess(t, w.Close())
	}()

	test.ExpectSuccess(t, i.Set(4))
	test.DemandSuccess(t, dsk.Save())

	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatalf("no notification after preferences file was saved")
	}

	// saving can produce more than one event. wait for them to settle
	settle := time.After(200 * time.Millisecond)
	for settled := false; !settled; {
		select {
		case <-w.Changed():
		case <-settle:
			settled = true
		}
	}

	// a change to another file in the same directory is not reported
	test.DemandSuccess(t, os.WriteFile(fn+".other", []byte("x"), 0o600))
	select {
	case <-w.Changed():
		t.Errorf("unexpected notification for another file")
	case <-time.After(200 * time.Millisecond):
	}
}
