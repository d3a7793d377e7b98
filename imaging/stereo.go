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

package imaging

import "fmt"

// StereoMode of the window.
type StereoMode int

// List of valid StereoMode values.
const (
	Mono StereoMode = iota
	QuadBuffered
	CompressedTopLeftBottomRight
	CompressedTopRightBottomLeft
	FreeFusion
	FreeCrossFusion
	AnaglyphRedGreen
	AnaglyphGreenRed
	AnaglyphRedBlue
	AnaglyphBlueRed
	DualWindow

	numStereoModes
)

var stereoNames = [numStereoModes]string{
	"mono",
	"quad buffered",
	"compressed top-left/bottom-right",
	"compressed top-right/bottom-left",
	"free fusion",
	"free cross fusion",
	"anaglyph red-green",
	"anaglyph green-red",
	"anaglyph red-blue",
	"anaglyph blue-red",
	"dual window",
}

func (m StereoMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("stereo mode %d", int(m))
	}
	return stereoNames[m]
}

// Valid returns true if the StereoMode is one of the known modes.
func (m StereoMode) Valid() bool {
	return m >= Mono && m < numStereoModes
}

// Stereo returns true for any mode other than Mono.
func (m StereoMode) Stereo() bool {
	return m > Mono
}

// SeparateStreams returns true if the left and right views are displayed by
// the graphics hardware without being merged.
func (m StereoMode) SeparateStreams() bool {
	return m == QuadBuffered
}

// SideBySide returns true for the modes where each view occupies half the
// width of the window.
func (m StereoMode) SideBySide() bool {
	return m == FreeFusion || m == FreeCrossFusion
}

// Anaglyph returns true for the modes where the views are merged by colour.
func (m StereoMode) Anaglyph() bool {
	return m >= AnaglyphRedGreen && m <= AnaglyphBlueRed
}

// Compressed returns true for the modes where each view occupies half the
// height of the window.
func (m StereoMode) Compressed() bool {
	return m == CompressedTopLeftBottomRight || m == CompressedTopRightBottomLeft
}

// colour components written for a view. view zero is the left view
type colorMask struct {
	r, g, b bool
}

// anaglyphMask returns the colour components written for the view. the
// result is meaningless if the mode is not an anaglyph mode
func (m StereoMode) anaglyphMask(view int) colorMask {
	red := colorMask{r: true}
	green := colorMask{g: true}
	blue := colorMask{b: true}

	var left, right colorMask
	switch m {
	case AnaglyphRedGreen:
		left, right = red, green
	case AnaglyphGreenRed:
		left, right = green, red
	case AnaglyphRedBlue:
		left, right = red, blue
	case AnaglyphBlueRed:
		left, right = blue, red
	}
	if view == 0 {
		return left
	}
	return right
}
