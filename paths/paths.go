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

package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// the base path for all resources. note that we don't use this value directly
// except in the getBasePath() function. that function should be used instead.
const baseResourcePath = ".imagingpipe"

// ResourcePath returns the resource string (representing the resource to be
// loaded) prepended with operating system specific details.
func ResourcePath(resource ...string) string {
	p := make([]string, 0, len(resource)+1)
	p = append(p, getBasePath())
	p = append(p, resource...)
	return filepath.Join(p...)
}

// getBasePath() returns baseResourcePath with the user's config directory
// prepended if the unadorned baseResourcePath cannot be found in the current
// directory.
//
// note that we're not checking for the existance of the resource requested by
// the caller
func getBasePath() string {
	if _, err := os.Stat(baseResourcePath); err == nil {
		return baseResourcePath
	}

	cnf, err := os.UserConfigDir()
	if err != nil {
		return baseResourcePath
	}
	return filepath.Join(cnf, baseResourcePath[1:])
}

// MakeResourceDir creates the directory for the resource path if it doesn't
// already exist. The final element of the resource is assumed to be a file.
func MakeResourceDir(resource ...string) (string, error) {
	pth := ResourcePath(resource...)
	if err := os.MkdirAll(filepath.Dir(pth), 0o700); err != nil {
		return "", err
	}
	return pth, nil
}

// UniqueFilename creates a filename that (assuming a functioning clock) should
// not collide with any existing file. Note that the function does not test for
// this.
//
// Format of returned string is:
//
//	prepend_label_YYYYMMDD_HHMMSS.ext
//
// If there is no label the returned string will be of the format:
//
//	prepend_YYYYMMDD_HHMMSS.ext
func UniqueFilename(prepend string, label string, ext string) string {
	n := time.Now()
	timestamp := fmt.Sprintf("%04d%02d%02d_%02d%02d%02d", n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second())

	var fn string
	if l := strings.TrimSpace(label); len(l) > 0 {
		fn = fmt.Sprintf("%s_%s_%s", prepend, l, timestamp)
	} else {
		fn = fmt.Sprintf("%s_%s", prepend, timestamp)
	}

	if ext != "" {
		fn = fmt.Sprintf("%s.%s", fn, strings.TrimPrefix(ext, "."))
	}

	return fn
}
