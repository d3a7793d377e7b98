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

// Package version reports the version and vcs revision of the application.
package version

import (
	"fmt"
	"runtime/debug"
)

// The name to use when referring to the application
const ApplicationName = "Imagingpipe"

// if number is empty then the project was not built with a version number
// supplied by the linker
var number string

var revision string
var version string

// Version returns the version string, the revision string and whether this is
// a numbered "release" version.
//
// If the version string is "unreleased" then the project has been built
// without a version number but with vcs information. If the version string is
// "local" then there is no version number and no vcs information. This can
// happen when running with "go run ."
func Version() (string, string, bool) {
	return version, revision, number != "" && version == number
}

func init() {
	var vcs bool
	var vcsRevision string
	var vcsModified bool

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, v := range info.Settings {
			switch v.Key {
			case "vcs":
				vcs = true
			case "vcs.revision":
				vcsRevision = v.Value
			case "vcs.modified":
				vcsModified = v.Value == "true"
			}
		}
	}

	switch {
	case vcsRevision == "":
		revision = "no revision information"
	case vcsModified:
		revision = fmt.Sprintf("%s+dirty", vcsRevision)
	default:
		revision = vcsRevision
	}

	switch {
	case number != "":
		version = number
	case vcs:
		version = "unreleased"
	default:
		version = "local"
	}
}
