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

import "fmt"

// Handle is a driver object name. Zero is never a valid object.
type Handle uint32

// Capabilities of the graphics hardware and driver that the imaging pipeline
// branches on.
type Capabilities struct {
	// framebuffer objects and rectangle textures. the pipeline can not be
	// used at all without this
	Framebuffers bool

	// floating point colour textures
	FloatTextures bool

	// depth textures. required if a render target needs depth and stencil
	DepthTextures bool

	// combined 24 bit depth and 8 bit stencil textures
	PackedDepthStencil bool
}

func (c Capabilities) String() string {
	return fmt.Sprintf("fbo=%v float=%v depth=%v packed=%v", c.Framebuffers, c.FloatTextures, c.DepthTextures, c.PackedDepthStencil)
}

// Status of the currently bound framebuffer.
type Status int

// List of valid Status values.
const (
	Complete Status = iota
	IncompleteAttachment
	IncompleteMissingAttachment
	Unsupported
	UnknownStatus
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case IncompleteAttachment:
		return "incomplete attachment"
	case IncompleteMissingAttachment:
		return "missing attachment"
	case Unsupported:
		return "unsupported format"
	}
	return "unknown error"
}

// Color in the range 0.0 to 1.0 for each component.
type Color struct {
	R, G, B, A float32
}

// Buffer is the colour buffer of the system framebuffer that drawing is
// directed to.
type Buffer int

// List of valid Buffer values. BackLeft and BackRight are only meaningful for
// a window with a stereo context.
const (
	BackBuffer Buffer = iota
	BackLeft
	BackRight
)

func (b Buffer) String() string {
	switch b {
	case BackLeft:
		return "back left"
	case BackRight:
		return "back right"
	}
	return "back"
}

// Device is the graphics driver as seen by the imaging pipeline.
type Device interface {
	Capabilities() Capabilities

	// CreateColorTexture allocates storage for a colour texture of the
	// specified format. The texture is not bound when the function returns.
	CreateColorTexture(format Format, width, height int32) (Handle, error)

	// CreateDepthTexture allocates a depth texture. If packedStencil is true the
	// texture has a 24 bit depth component and 8 bit stencil component.
	CreateDepthTexture(packedStencil bool, width, height int32) (Handle, error)

	// CreateStencilRenderbuffer allocates an 8 bit stencil renderbuffer.
	CreateStencilRenderbuffer(width, height int32) (Handle, error)

	// CreateFramebuffer creates a framebuffer object and binds it.
	CreateFramebuffer() (Handle, error)

	// BindFramebuffer binds the framebuffer for drawing. Zero binds the system
	// framebuffer.
	BindFramebuffer(fbo Handle)

	// Attachments to the currently bound framebuffer. A zero handle detaches.
	AttachColor(tex Handle)
	AttachDepth(tex Handle, withStencil bool)
	AttachStencil(rb Handle)

	// FramebufferStatus of the currently bound framebuffer.
	FramebufferStatus() Status

	DeleteTexture(tex Handle)
	DeleteRenderbuffer(rb Handle)
	DeleteFramebuffer(fbo Handle)

	// Viewport of the currently bound framebuffer.
	Viewport(x, y, width, height int32)

	// UseProgram selects the shader program for subsequent calls to
	// DrawTexturedQuad(). Zero selects the built-in identity program.
	UseProgram(prog Handle)

	// BindTexture binds the texture to the texture unit. Zero unbinds.
	//
	// Unit zero is the source image and unit one the lookup table. Unit two
	// is the second view when merging a stereo pair.
	BindTexture(unit int, tex Handle)

	// DrawTexturedQuad draws the texture bound to unit zero as a quad
	// covering the viewport. The texture dimensions are in pixels.
	DrawTexturedQuad(width, height int32, cfg BlitConfig)

	// DrawBuffer selects the colour buffer of the system framebuffer that
	// drawing to framebuffer zero is directed to.
	DrawBuffer(buf Buffer)

	// ColorMask enables or disables writing of each colour component.
	ColorMask(r, g, b, a bool)

	// FillRect fills the rectangle of the currently bound framebuffer with the
	// colour. The origin is the bottom left of the framebuffer.
	FillRect(x, y, width, height int32, c Color)
}
