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

package gl32

import (
	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/logger"
)

// GLError is the pattern for errors reported by glGetError().
const GLError = "gl32: %s: gl error %#x"

// Device implements gpu.Device with an OpenGL 3.2 core profile context.
type Device struct {
	caps gpu.Capabilities

	// identity program and its uniforms
	identity uint32

	// uniforms for every program that has been used with UseProgram()
	uniforms map[uint32]uniforms

	// current program. zero means the identity program
	program uint32

	// viewport as set by Viewport(). required for the ViewportSize uniform
	viewport [4]int32

	// the quad drawn by DrawTexturedQuad()
	vao uint32
	vbo uint32
}

// NewDevice initialises the OpenGL bindings and prepares the resources used by
// DrawTexturedQuad(). The OpenGL context must be current.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, curated.Capabilityf("gl32: %v", err)
	}

	logger.Logf(logger.Allow, "gl32", "%s", gl.GoStr(gl.GetString(gl.VERSION)))
	logger.Logf(logger.Allow, "gl32", "%s", gl.GoStr(gl.GetString(gl.RENDERER)))

	dev := &Device{
		uniforms: make(map[uint32]uniforms),

		// framebuffer objects, floating point textures, depth textures and
		// packed depth/stencil are all core features of OpenGL 3.2
		caps: gpu.Capabilities{
			Framebuffers:       true,
			FloatTextures:      true,
			DepthTextures:      true,
			PackedDepthStencil: true,
		},
	}

	prog, err := CompileProgram(VertexShader, IdentityFragmentShader)
	if err != nil {
		return nil, curated.Internalf("gl32: identity program: %v", err)
	}
	dev.identity = uint32(prog)
	dev.uniforms[dev.identity] = getUniforms(dev.identity)

	// two triangles in a strip covering normalised device coordinates.
	// position followed by texture coordinate
	quad := []float32{
		-1, -1, 0, 0,
		1, -1, 1, 0,
		-1, 1, 0, 1,
		1, 1, 1, 1,
	}

	gl.GenVertexArrays(1, &dev.vao)
	gl.BindVertexArray(dev.vao)
	gl.GenBuffers(1, &dev.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, dev.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(positionLocation)
	gl.VertexAttribPointerWithOffset(positionLocation, 2, gl.FLOAT, false, 16, 0)
	gl.EnableVertexAttribArray(uvLocation)
	gl.VertexAttribPointerWithOffset(uvLocation, 2, gl.FLOAT, false, 16, 8)
	gl.BindVertexArray(0)

	if err := checkError("setup"); err != nil {
		dev.Destroy()
		return nil, err
	}

	return dev, nil
}

// Destroy releases the resources created by NewDevice().
func (dev *Device) Destroy() {
	if dev.vbo != 0 {
		gl.DeleteBuffers(1, &dev.vbo)
		dev.vbo = 0
	}
	if dev.vao != 0 {
		gl.DeleteVertexArrays(1, &dev.vao)
		dev.vao = 0
	}
	if dev.identity != 0 {
		gl.DeleteProgram(dev.identity)
		dev.identity = 0
	}
}

// SetCapabilities overrides the capabilities reported by the device. Useful
// for checking the fallback paths on real hardware.
func (dev *Device) SetCapabilities(caps gpu.Capabilities) {
	dev.caps = caps
}

// checkError drains the OpenGL error queue and returns the first error found.
func checkError(op string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	if first != 0 {
		return curated.Capabilityf(GLError, op, first)
	}
	return nil
}

func internalFormat(format gpu.Format) int32 {
	switch format {
	case gpu.RGBA16:
		return gl.RGBA16
	case gpu.RGBA16F:
		return gl.RGBA16F
	case gpu.RGBA32F:
		return gl.RGBA32F
	}
	return gl.RGBA8
}

func framebufferStatus(status uint32) gpu.Status {
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return gpu.Complete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return gpu.IncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return gpu.IncompleteMissingAttachment
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return gpu.Unsupported
	}
	return gpu.UnknownStatus
}

// texture parameters for every texture created by the device. nearest
// neighbour filtering because filtering of floating point textures is not
// supported everywhere
func textureParameters() {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

// Capabilities implements the gpu.Device interface.
func (dev *Device) Capabilities() gpu.Capabilities {
	return dev.caps
}

// CreateColorTexture implements the gpu.Device interface.
func (dev *Device) CreateColorTexture(format gpu.Format, width, height int32) (gpu.Handle, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat(format), width, height, 0, gl.RGBA, gl.FLOAT, nil)
	textureParameters()
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("colour texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	return gpu.Handle(tex), nil
}

// CreateDepthTexture implements the gpu.Device interface.
func (dev *Device) CreateDepthTexture(packedStencil bool, width, height int32) (gpu.Handle, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	if packedStencil {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH24_STENCIL8, width, height, 0, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, nil)
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, width, height, 0, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, nil)
	}
	textureParameters()
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("depth texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	return gpu.Handle(tex), nil
}

// CreateStencilRenderbuffer implements the gpu.Device interface.
func (dev *Device) CreateStencilRenderbuffer(width, height int32) (gpu.Handle, error) {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.STENCIL_INDEX8, width, height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := checkError("stencil renderbuffer"); err != nil {
		gl.DeleteRenderbuffers(1, &rb)
		return 0, err
	}
	return gpu.Handle(rb), nil
}

// CreateFramebuffer implements the gpu.Device interface.
func (dev *Device) CreateFramebuffer() (gpu.Handle, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	if err := checkError("framebuffer"); err != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &fbo)
		return 0, err
	}
	return gpu.Handle(fbo), nil
}

// BindFramebuffer implements the gpu.Device interface.
func (dev *Device) BindFramebuffer(fbo gpu.Handle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fbo))
}

// AttachColor implements the gpu.Device interface.
func (dev *Device) AttachColor(tex gpu.Handle) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(tex), 0)
}

// AttachDepth implements the gpu.Device interface.
func (dev *Device) AttachDepth(tex gpu.Handle, withStencil bool) {
	if withStencil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.TEXTURE_2D, uint32(tex), 0)
		return
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, uint32(tex), 0)
}

// AttachStencil implements the gpu.Device interface.
func (dev *Device) AttachStencil(rb gpu.Handle) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.STENCIL_ATTACHMENT, gl.RENDERBUFFER, uint32(rb))
}

// FramebufferStatus implements the gpu.Device interface.
func (dev *Device) FramebufferStatus() gpu.Status {
	return framebufferStatus(gl.CheckFramebufferStatus(gl.FRAMEBUFFER))
}

// DeleteTexture implements the gpu.Device interface.
func (dev *Device) DeleteTexture(tex gpu.Handle) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}

// DeleteRenderbuffer implements the gpu.Device interface.
func (dev *Device) DeleteRenderbuffer(rb gpu.Handle) {
	r := uint32(rb)
	gl.DeleteRenderbuffers(1, &r)
}

// DeleteFramebuffer implements the gpu.Device interface.
func (dev *Device) DeleteFramebuffer(fbo gpu.Handle) {
	f := uint32(fbo)
	gl.DeleteFramebuffers(1, &f)
}

// Viewport implements the gpu.Device interface.
func (dev *Device) Viewport(x, y, width, height int32) {
	dev.viewport = [4]int32{x, y, width, height}
	gl.Viewport(x, y, width, height)
}

// UseProgram implements the gpu.Device interface.
func (dev *Device) UseProgram(prog gpu.Handle) {
	dev.program = uint32(prog)
	if dev.program == 0 {
		dev.program = dev.identity
	}
	if _, ok := dev.uniforms[dev.program]; !ok {
		dev.uniforms[dev.program] = getUniforms(dev.program)
	}
	gl.UseProgram(dev.program)
}

// BindTexture implements the gpu.Device interface.
func (dev *Device) BindTexture(unit int, tex gpu.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	gl.ActiveTexture(gl.TEXTURE0)
}

// DrawTexturedQuad implements the gpu.Device interface.
func (dev *Device) DrawTexturedQuad(width, height int32, cfg gpu.BlitConfig) {
	if dev.program == 0 {
		dev.UseProgram(0)
	}
	u := dev.uniforms[dev.program]

	if u.image != -1 {
		gl.Uniform1i(u.image, 0)
	}
	if u.lut != -1 {
		gl.Uniform1i(u.lut, 1)
	}
	if u.image2 != -1 {
		gl.Uniform1i(u.image2, 2)
	}

	// scale is relative to the size of the viewport. a texture smaller than
	// the viewport is drawn at its natural size
	sx, sy := cfg.Scale()
	if dev.viewport[2] > 0 && dev.viewport[3] > 0 {
		sx *= float32(width) / float32(dev.viewport[2])
		sy *= float32(height) / float32(dev.viewport[3])
	}
	if u.scale != -1 {
		gl.Uniform2f(u.scale, sx, sy)
	}
	if u.offset != -1 {
		gl.Uniform2f(u.offset, cfg.OffsetX, cfg.OffsetY)
	}
	if u.viewportSize != -1 {
		gl.Uniform2f(u.viewportSize, float32(dev.viewport[2]), float32(dev.viewport[3]))
	}

	filter := int32(gl.NEAREST)
	if cfg.Bilinear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)

	gl.BindVertexArray(dev.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
}

// FillRect implements the gpu.Device interface.
func (dev *Device) FillRect(x, y, width, height int32, c gpu.Color) {
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(x, y, width, height)
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.SCISSOR_TEST)
}

// DrawBuffer implements the gpu.Device interface.
func (dev *Device) DrawBuffer(buf gpu.Buffer) {
	gl.DrawBuffer(drawBuffer(buf))
}

func drawBuffer(buf gpu.Buffer) uint32 {
	switch buf {
	case gpu.BackLeft:
		return gl.BACK_LEFT
	case gpu.BackRight:
		return gl.BACK_RIGHT
	}
	return gl.BACK
}

// ColorMask implements the gpu.Device interface.
func (dev *Device) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}
