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

// Package imaging is the image processing pipeline of an onscreen window.
//
// The pipeline is configured when the window is opened. Plan() takes the
// requested feature flags, the stereo mode and the size of the window and
// allocates the render targets that the configuration needs. Each render
// target is assigned to one or more roles: the draw buffers that user code
// renders into, the processed draw buffers that receive the output of image
// processing, the pre-conversion buffers that hold the merged stereo image
// and the finalized buffers, which are always the system framebuffer. Roles
// that are not needed for a configuration are aliases of the preceding role.
//
// Processing is attached to the pipeline through the hook chains of the
// window (see the hooks package). The Dispatcher executes a chain, moving
// the image between a pair of render targets as each stage renders.
//
// The Window type ties the pipeline and the hook chains to the lifetime of a
// window. All functions must be called from the goroutine that owns the
// graphics context.
package imaging
