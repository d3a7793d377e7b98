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

package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/stimkit/imagingpipe/curated"
)

// WarningBoilerPlate is written as a comment at the head of every preferences
// file.
const WarningBoilerPlate = "# *** do not edit this file by hand while the application is running ***"

// Disk represents preference values as stored on disk. The file format is
// TOML with one string value per key.
type Disk struct {
	path    string
	entries map[string]pref

	// values taken from the command line stack when the entry was added.
	// they take precedence over values loaded from the file
	commandLine map[string]Value
}

func (dsk *Disk) String() string {
	keys := dsk.keys()
	s := strings.Builder{}
	for _, k := range keys {
		s.WriteString(fmt.Sprintf("%s :: %s\n", k, dsk.entries[k]))
	}
	return s.String()
}

// NewDisk is the preferred method of initialisation for the Disk type.
func NewDisk(path string) (*Disk, error) {
	if path == "" {
		return nil, curated.Userf("prefs: no path for preferences file")
	}
	return &Disk{
		path:        path,
		entries:     make(map[string]pref),
		commandLine: make(map[string]Value),
	}, nil
}

// Add preference value to list of values to store/load from disk. If the
// command line stack has a value for the key then it is applied immediately.
func (dsk *Disk) Add(key string, p pref) error {
	if _, ok := dsk.entries[key]; ok {
		return curated.Userf("prefs: duplicate key (%s)", key)
	}
	dsk.entries[key] = p

	if ok, v := GetCommandLinePref(key); ok {
		if err := p.Set(v); err != nil {
			return curated.Errorf("prefs: %v", err)
		}
		dsk.commandLine[key] = v
	}

	return nil
}

func (dsk *Disk) keys() []string {
	keys := make([]string, 0, len(dsk.entries))
	for k := range dsk.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// read the file from disk. a missing file is not an error and results in an
// empty map
func (dsk *Disk) read() (map[string]string, error) {
	data, err := os.ReadFile(dsk.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, curated.Errorf("prefs: %v", err)
	}

	vals := make(map[string]string)
	if err := toml.Unmarshal(data, &vals); err != nil {
		return nil, curated.Errorf("prefs: %v", err)
	}
	return vals, nil
}

// Save current preference values to disk. Values in the file that have not
// been added to this Disk instance are preserved.
func (dsk *Disk) Save() error {
	vals, err := dsk.read()
	if err != nil {
		return err
	}

	for k, p := range dsk.entries {
		vals[k] = p.String()
	}

	data, err := toml.Marshal(vals)
	if err != nil {
		return curated.Errorf("prefs: %v", err)
	}

	data = append([]byte(WarningBoilerPlate+"\n"), data...)
	if err := os.WriteFile(dsk.path, data, 0o600); err != nil {
		return curated.Errorf("prefs: %v", err)
	}

	return nil
}

// Load preference values from disk. Keys in the file that have not been added
// to this Disk instance are ignored. Values given on the command line are not
// replaced by values in the file.
func (dsk *Disk) Load() error {
	vals, err := dsk.read()
	if err != nil {
		return err
	}

	for k, v := range vals {
		if _, ok := dsk.commandLine[k]; ok {
			continue
		}
		if p, ok := dsk.entries[k]; ok {
			if err := p.Set(v); err != nil {
				return curated.Errorf("prefs: %s: %v", k, err)
			}
		}
	}

	return nil
}

// Reset all preference values to their zero value.
func (dsk *Disk) Reset() error {
	for _, k := range dsk.keys() {
		if err := dsk.entries[k].Reset(); err != nil {
			return curated.Errorf("prefs: %s: %v", k, err)
		}
	}
	return nil
}
