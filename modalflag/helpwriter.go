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

package modalflag

import (
	"fmt"
	"io"
	"strings"
)

// helpWriter is used to amend the default output from the flag package.
type helpWriter struct {
	buffer strings.Builder
}

// Write buffers all output.
func (hw *helpWriter) Write(p []byte) (n int, err error) {
	return hw.buffer.Write(p)
}

func (hw *helpWriter) help(output io.Writer, banner string, subModes []string, additionalHelp string) {
	s := hw.buffer.String()
	usage, flags, _ := strings.Cut(s, "\n")

	if flags == "" && len(subModes) == 0 {
		if banner != "" {
			fmt.Fprintf(output, "No help available for %s\n", banner)
		} else {
			io.WriteString(output, "No help available\n")
		}
		return
	}

	if banner != "" {
		fmt.Fprintf(output, "%s for %s mode\n", usage, banner)
	} else {
		fmt.Fprintf(output, "%s\n", usage)
	}

	io.WriteString(output, flags)

	if len(subModes) > 0 {
		if flags != "" {
			io.WriteString(output, "\n")
		}
		fmt.Fprintf(output, "  available sub-modes: %s\n", strings.Join(subModes, ", "))
		fmt.Fprintf(output, "    default: %s\n", subModes[0])
	}

	if additionalHelp != "" {
		fmt.Fprintf(output, "\n%s\n", additionalHelp)
	}
}
