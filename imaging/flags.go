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

import (
	"strconv"
	"strings"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
)

// UnknownFlag is the error pattern for a flag name that ParseFlags() does not
// recognise.
const UnknownFlag = "imaging: unknown flag (%s)"

// Flags is the feature word of the pipeline. Values of zero or less disable
// the pipeline.
type Flags int

// List of valid Flags bits.
const (
	NeedFastBackingStore Flags = 1 << 0
	NeedImageProcessing  Flags = 1 << 1
	NeedSeparateStreams  Flags = 1 << 2
	NeedStereoMergeOp    Flags = 1 << 3
	NeedOutputConversion Flags = 1 << 4
	Need16BPCFixed       Flags = 1 << 5
	Need16BPCFloat       Flags = 1 << 6
	Need32BPCFloat       Flags = 1 << 7

	// the two window size flags are not part of the feature word of a
	// configured pipeline. they are recorded in State.Special
	HalfWidthWindow  Flags = 1 << 11
	HalfHeightWindow Flags = 1 << 12
)

// FlagInfo describes a single bit of the feature word.
type FlagInfo struct {
	Flag     Flags
	Name     string
	Synopsis string
}

var flagInfo = []FlagInfo{
	{NeedFastBackingStore, "FastBackingStore", "render into an off-screen draw buffer instead of the system backbuffer"},
	{NeedImageProcessing, "ImageProcessing", "image processing of each view between drawing and output"},
	{NeedSeparateStreams, "SeparateStreams", "left and right views are kept in separate streams up to the display (quad-buffered stereo)"},
	{NeedStereoMergeOp, "StereoMergeOp", "left and right views are merged into a single image"},
	{NeedOutputConversion, "OutputConversion", "conversion of the final image into the format of the display device"},
	{Need16BPCFixed, "16BPCFixed", "16 bits per colour component, fixed point"},
	{Need16BPCFloat, "16BPCFloat", "16 bits per colour component, floating point"},
	{Need32BPCFloat, "32BPCFloat", "32 bits per colour component, floating point"},
	{HalfWidthWindow, "HalfWidthWindow", "draw buffers and processed buffers are half the width of the window"},
	{HalfHeightWindow, "HalfHeightWindow", "draw buffers and processed buffers are half the height of the window"},
}

// FlagSynopsis returns a description of every bit of the feature word.
func FlagSynopsis() []FlagInfo {
	return append([]FlagInfo{}, flagInfo...)
}

// ParseFlags converts a string to a feature word. The string is either an
// integer or a list of flag names, as returned by Flags.String(), separated
// by '|' or ','. Flag names are not case sensitive.
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Flags(n), nil
	}

	var f Flags
	for _, n := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		n = strings.TrimSpace(n)
		found := false
		for _, i := range flagInfo {
			if strings.EqualFold(i.Name, n) {
				f |= i.Flag
				found = true
				break // for loop
			}
		}
		if !found {
			return 0, curated.Userf(UnknownFlag, n)
		}
	}
	return f, nil
}

// Has returns true if every bit in g is also set in f. Always false for a
// disabled feature word.
func (f Flags) Has(g Flags) bool {
	return f > 0 && f&g == g
}

func (f Flags) String() string {
	if f < 0 {
		return "disabled"
	}
	if f == 0 {
		return "none"
	}

	var s []string
	for _, i := range flagInfo {
		if f&i.Flag == i.Flag {
			s = append(s, i.Name)
		}
	}
	return strings.Join(s, "|")
}

// Format returns the render target format for the highest precision bit that
// is set.
func (f Flags) Format() gpu.Format {
	switch {
	case f.Has(Need32BPCFloat):
		return gpu.RGBA32F
	case f.Has(Need16BPCFloat):
		return gpu.RGBA16F
	case f.Has(Need16BPCFixed):
		return gpu.RGBA16
	}
	return gpu.RGBA8
}

// precision returns the single precision bit that matches Format()
func (f Flags) precision() Flags {
	switch {
	case f.Has(Need32BPCFloat):
		return Need32BPCFloat
	case f.Has(Need16BPCFloat):
		return Need16BPCFloat
	case f.Has(Need16BPCFixed):
		return Need16BPCFixed
	}
	return 0
}
