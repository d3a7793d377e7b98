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

package rendertarget

import (
	"fmt"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/logger"
)

// Sentinal error patterns
const (
	InvalidSize           = "rendertarget: invalid size (%dx%d)"
	NoFramebufferSupport  = "rendertarget: graphics hardware does not support framebuffer objects"
	NoFloatSupport        = "rendertarget: graphics hardware does not support floating point textures (%s)"
	NoDepthSupport        = "rendertarget: graphics hardware does not support depth textures"
	IncompleteFramebuffer = "rendertarget: framebuffer incomplete [%s] (depth and stencil buffers %s)"
	AllocationFailed      = "rendertarget: %v"
)

// RenderTarget is an off-screen buffer. The zero value is an empty render
// target that can be safely destroyed.
type RenderTarget struct {
	FBO     gpu.Handle
	Color   gpu.Handle
	Depth   gpu.Handle
	Stencil gpu.Handle

	// the depth texture has a packed stencil component. the Stencil handle is
	// always zero in this case
	Packed bool

	Width  int32
	Height int32
	Format gpu.Format
}

func (rt *RenderTarget) String() string {
	if rt == nil {
		return "system framebuffer"
	}
	s := fmt.Sprintf("fbo=%d %dx%d %s", rt.FBO, rt.Width, rt.Height, rt.Format)
	switch {
	case rt.Packed:
		s = fmt.Sprintf("%s depth+stencil=%d", s, rt.Depth)
	case rt.Stencil != 0:
		s = fmt.Sprintf("%s depth=%d stencil=%d", s, rt.Depth, rt.Stencil)
	case rt.Depth != 0:
		s = fmt.Sprintf("%s depth=%d", s, rt.Depth)
	}
	return s
}

// HasStencil returns true if the render target has a stencil buffer of any
// kind.
func (rt *RenderTarget) HasStencil() bool {
	return rt.Packed || rt.Stencil != 0
}

// Verbosity contains the permissions for the two classes of log entry made by
// the package. A nil permission prevents logging of that class.
type Verbosity struct {
	Warnings logger.Permission
	Debug    logger.Permission
}

// DefaultVerbosity logs warnings but not debugging output.
func DefaultVerbosity() Verbosity {
	return Verbosity{Warnings: logger.Allow, Debug: logger.Deny}
}

const logTag = "rendertarget"

// Create a new render target. The framebuffer is not bound when the function
// returns. On error all partially created objects are released.
//
// Log entries made while creating the render target are subject to the
// permissions in the Verbosity argument.
func Create(dev gpu.Device, format gpu.Format, needDepthStencil bool, width, height int32, log Verbosity) (*RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, curated.Userf(InvalidSize, width, height)
	}

	caps := dev.Capabilities()
	if !caps.Framebuffers {
		return nil, curated.Capabilityf(NoFramebufferSupport)
	}
	if format.IsFloat() && !caps.FloatTextures {
		return nil, curated.Capabilityf(NoFloatSupport, format)
	}
	if needDepthStencil && !caps.DepthTextures {
		return nil, curated.Capabilityf(NoDepthSupport)
	}

	rt := &RenderTarget{
		Width:  width,
		Height: height,
		Format: format,
	}

	err := rt.build(dev, needDepthStencil, log)
	if err != nil {
		Destroy(dev, rt)
		return nil, err
	}

	dev.BindFramebuffer(0)

	return rt, nil
}

func (rt *RenderTarget) build(dev gpu.Device, needDepthStencil bool, log Verbosity) error {
	var err error

	rt.Color, err = dev.CreateColorTexture(rt.Format, rt.Width, rt.Height)
	if err != nil {
		return curated.Errorf(AllocationFailed, err)
	}

	rt.FBO, err = dev.CreateFramebuffer()
	if err != nil {
		return curated.Errorf(AllocationFailed, err)
	}
	dev.AttachColor(rt.Color)

	if needDepthStencil {
		logger.Log(log.Debug, logTag, "trying to attach depth+stencil attachments to framebuffer")
		if err := rt.attachDepthStencil(dev, log); err != nil {
			return err
		}
	} else {
		logger.Log(log.Debug, logTag, "only colour texture attached to framebuffer. no depth or stencil buffers requested")
	}

	status := dev.FramebufferStatus()
	if status != gpu.Complete {
		requested := "disabled"
		if needDepthStencil {
			requested = "requested"
		}
		return curated.Capabilityf(IncompleteFramebuffer, status, requested)
	}

	logger.Logf(log.Debug, logTag, "framebuffer complete: %s", rt)

	return nil
}

func (rt *RenderTarget) attachDepthStencil(dev gpu.Device, log Verbosity) error {
	var err error

	if dev.Capabilities().PackedDepthStencil {
		logger.Log(log.Debug, logTag, "packed depth/stencil supported. attaching combined 24 bit depth + 8 bit stencil texture")

		rt.Depth, err = dev.CreateDepthTexture(true, rt.Width, rt.Height)
		if err != nil {
			return curated.Errorf(AllocationFailed, err)
		}
		rt.Packed = true
		dev.AttachDepth(rt.Depth, true)
		return nil
	}

	logger.Log(log.Debug, logTag, "packed depth/stencil unsupported. attaching 24 bit depth texture and 8 bit stencil renderbuffer")

	rt.Depth, err = dev.CreateDepthTexture(false, rt.Width, rt.Height)
	if err != nil {
		return curated.Errorf(AllocationFailed, err)
	}
	dev.AttachDepth(rt.Depth, false)

	rt.Stencil, err = dev.CreateStencilRenderbuffer(rt.Width, rt.Height)
	if err != nil {
		// no stencil renderbuffer is the same outcome as an incomplete
		// framebuffer with a stencil renderbuffer. carry on depth-only
		logger.Logf(log.Debug, logTag, "stencil renderbuffer creation failed: %v", err)
		rt.Stencil = 0
		stencilWarning(log)
		return nil
	}
	dev.AttachStencil(rt.Stencil)

	if dev.FramebufferStatus() != gpu.Complete {
		logger.Log(log.Debug, logTag, "stencil renderbuffer attachment failed. detaching stencil buffer")
		stencilWarning(log)
		dev.AttachStencil(0)
		dev.DeleteRenderbuffer(rt.Stencil)
		rt.Stencil = 0
	}

	return nil
}

func stencilWarning(log Verbosity) {
	logger.Log(log.Warnings, logTag, "stencil buffers not supported by the graphics hardware. drawing that requires a stencil buffer will misbehave")
}

// Destroy the render target. Every non-zero handle is deleted and then set to
// zero. Destroying a render target more than once is safe, as is destroying a
// nil render target.
func Destroy(dev gpu.Device, rt *RenderTarget) {
	if rt == nil {
		return
	}

	if rt.FBO != 0 || rt.Color != 0 || rt.Depth != 0 || rt.Stencil != 0 {
		dev.BindFramebuffer(0)
	}

	if rt.Color != 0 {
		dev.DeleteTexture(rt.Color)
		rt.Color = 0
	}
	if rt.Depth != 0 {
		dev.DeleteTexture(rt.Depth)
		rt.Depth = 0
	}
	if rt.Stencil != 0 {
		dev.DeleteRenderbuffer(rt.Stencil)
		rt.Stencil = 0
	}
	if rt.FBO != 0 {
		dev.DeleteFramebuffer(rt.FBO)
		rt.FBO = 0
	}
	rt.Packed = false
}
