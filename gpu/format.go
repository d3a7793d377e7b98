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

package gpu

// Format of a colour attachment.
type Format int

// List of valid Format values.
const (
	RGBA8 Format = iota
	RGBA16
	RGBA16F
	RGBA32F
)

func (f Format) String() string {
	switch f {
	case RGBA8:
		return "RGBA8"
	case RGBA16:
		return "RGBA16"
	case RGBA16F:
		return "RGBA16F"
	case RGBA32F:
		return "RGBA32F"
	}
	return "unknown format"
}

// IsFloat returns true if the format is a floating point format.
func (f Format) IsFloat() bool {
	return f == RGBA16F || f == RGBA32F
}

// BitsPerComponent returns the precision of each colour component.
func (f Format) BitsPerComponent() int {
	switch f {
	case RGBA16, RGBA16F:
		return 16
	case RGBA32F:
		return 32
	}
	return 8
}
