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

package hooks

import (
	"fmt"
	"io"
)

// Point identifies a hook chain.
type Point int

// List of valid Point values. The order is the order of the catalog.
const (
	CloseOnscreenWindowPreGLShutdown Point = iota
	CloseOnscreenWindowPostGLShutdown
	UserspaceBufferDrawingFinished
	StereoLeftCompositingBlit
	StereoRightCompositingBlit
	StereoCompositingBlit
	PostCompositingBlit
	FinalOutputFormattingBlit
	UserspaceBufferDrawingPrepare
	IdentityBlitChain
	LeftFinalizerBlitChain
	RightFinalizerBlitChain

	NumPoints
)

// Info about a hook chain in the catalog.
type Info struct {
	Point    Point
	Name     string
	Synopsis string
}

// the catalog is never modified after initialisation
var catalog = [NumPoints]Info{
	{CloseOnscreenWindowPreGLShutdown, "CloseOnscreenWindowPreGLShutdown",
		"called when a window is closing, before the graphics resources of the window are released"},
	{CloseOnscreenWindowPostGLShutdown, "CloseOnscreenWindowPostGLShutdown",
		"called when a window is closing, after the graphics resources of the window have been released"},
	{UserspaceBufferDrawingFinished, "UserspaceBufferDrawingFinished",
		"called when drawing into the draw buffers has finished for this frame"},
	{StereoLeftCompositingBlit, "StereoLeftCompositingBlit",
		"image processing of the left eye (or mono) view. draw buffer to processed buffer"},
	{StereoRightCompositingBlit, "StereoRightCompositingBlit",
		"image processing of the right eye view. draw buffer to processed buffer"},
	{StereoCompositingBlit, "StereoCompositingBlit",
		"merges the processed left and right eye views into a single image for the stereo mode"},
	{PostCompositingBlit, "PostCompositingBlit",
		"image processing of the merged image, before output formatting"},
	{FinalOutputFormattingBlit, "FinalOutputFormattingBlit",
		"conversion of the final image into the format required by the display device"},
	{UserspaceBufferDrawingPrepare, "UserspaceBufferDrawingPrepare",
		"called before drawing into the draw buffers begins for a new frame"},
	{IdentityBlitChain, "IdentityBlitChain",
		"copies the image unchanged. used by slave windows in dual window stereo"},
	{LeftFinalizerBlitChain, "LeftFinalizerBlitChain",
		"last operations on the left eye (or mono) image in the system framebuffer, after output formatting"},
	{RightFinalizerBlitChain, "RightFinalizerBlitChain",
		"last operations on the right eye image in the system framebuffer, after output formatting"},
}

var byName map[string]Point

func init() {
	byName = make(map[string]Point, len(catalog))
	for _, c := range catalog {
		byName[c.Name] = c.Point
	}
}

func (p Point) String() string {
	if p < 0 || p >= NumPoints {
		return fmt.Sprintf("hook point %d", int(p))
	}
	return catalog[p].Name
}

// Valid returns true if the Point is in the catalog.
func (p Point) Valid() bool {
	return p >= 0 && p < NumPoints
}

// Lookup a hook chain by name. The match is exact and case sensitive.
func Lookup(name string) (Point, bool) {
	p, ok := byName[name]
	return p, ok
}

// Catalog returns a copy of the catalog of hook chains.
func Catalog() []Info {
	return append([]Info{}, catalog[:]...)
}

// ListAll writes the catalog of hook chains in human readable form.
func ListAll(w io.Writer) {
	io.WriteString(w, "The following hook chains are available:\n")
	io.WriteString(w, "=======================================\n")
	for _, c := range catalog {
		fmt.Fprintf(w, "- %s : %s\n", c.Name, c.Synopsis)
	}
	io.WriteString(w, "=======================================\n\n")
}
