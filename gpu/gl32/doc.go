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

// Package gl32 implements gpu.Device for an OpenGL 3.2 core profile context.
//
// The context must be created and made current by the caller, with the
// SDL library for example, before NewDevice() is called. All functions must
// be called from the goroutine that owns the context, which will usually mean
// the goroutine locked to the main thread with runtime.LockOSThread().
//
// Colour attachments are TEXTURE_2D textures. Shader programs used with the
// device should follow the conventions of the built-in identity program: a
// vertex attribute 'Position' at location 0, a vertex attribute 'UV' at
// location 1, the source image in the sampler uniform 'Image' and the lookup
// texture in the sampler uniform 'LUT'. The vec2 uniforms 'Offset', 'Scale'
// and 'ViewportSize' are set for every draw if the program uses them.
package gl32
