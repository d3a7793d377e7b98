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

// Package rendertarget creates and destroys the off-screen render targets used
// by the imaging pipeline. A render target is a framebuffer object with a
// colour texture attachment and, optionally, depth and stencil attachments.
//
// Create() never returns a render target that is not framebuffer complete.
// When depth and stencil are requested on hardware without packed
// depth/stencil textures, a separate stencil renderbuffer is tried. If the
// framebuffer is incomplete with the separate stencil attachment then the
// stencil renderbuffer is removed and the render target is depth-only. This
// is not an error but a warning is logged.
package rendertarget
