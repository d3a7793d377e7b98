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

// Package gpu defines the interface between the imaging pipeline and the
// graphics driver. The pipeline never calls the graphics API directly. It
// asks a Device to allocate textures, renderbuffers and framebuffers, to
// report framebuffer completeness and to perform the small number of
// drawing operations that hook chains require.
//
// Two implementations are provided. The gl32 package implements Device with
// an OpenGL 3.2 core profile context. The simgpu package is a simulated
// device with configurable capabilities and failure injection.
//
// All Device methods must be called from the goroutine that owns the
// graphics context.
package gpu
