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

// Package simgpu is a simulated graphics device. It implements gpu.Device
// without a graphics context and records every call made to it. Capabilities
// can be configured to emulate older hardware and failures can be injected to
// exercise the fallback paths of the imaging pipeline.
//
// Used by the tests of the imaging pipeline and by the headless modes of the
// command line tool.
package simgpu

import (
	"fmt"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
)

// CreateFailed is the pattern for allocation failures injected with the
// FailCreate field.
const CreateFailed = "simgpu: injected failure creating %s"

type kind int

const (
	colorTexture kind = iota
	depthTexture
	stencilRenderbuffer
	framebufferObject
)

func (k kind) String() string {
	switch k {
	case colorTexture:
		return "colour texture"
	case depthTexture:
		return "depth texture"
	case stencilRenderbuffer:
		return "stencil renderbuffer"
	}
	return "framebuffer"
}

type framebuffer struct {
	color   gpu.Handle
	depth   gpu.Handle
	stencil gpu.Handle

	// depth texture is also attached as the stencil attachment
	packed bool
}

// Draw records a call to DrawTexturedQuad().
type Draw struct {
	FBO      gpu.Handle
	Buffer   gpu.Buffer
	Program  gpu.Handle
	Texture  gpu.Handle
	LUT      gpu.Handle
	Texture2 gpu.Handle
	Viewport [4]int32
	Width    int32
	Height   int32
	Config   gpu.BlitConfig
	Mask     [4]bool
}

// Fill records a call to FillRect().
type Fill struct {
	FBO    gpu.Handle
	Buffer gpu.Buffer
	X, Y   int32
	W, H   int32
	Color  gpu.Color
}

// Device implements the gpu.Device interface.
type Device struct {
	// capabilities reported by the Capabilities() function
	Caps gpu.Capabilities

	// framebuffers with a separate stencil renderbuffer attached are
	// reported as incomplete
	RejectSeparateStencil bool

	// if not Complete every call to FramebufferStatus() returns this value
	ForceStatus gpu.Status

	// the nth object creation (counting from one) fails. zero disables
	FailCreate int

	next    gpu.Handle
	created int
	live    map[gpu.Handle]kind
	fbos    map[gpu.Handle]*framebuffer

	bound    gpu.Handle
	program  gpu.Handle
	units    [3]gpu.Handle
	viewport [4]int32
	buffer   gpu.Buffer

	// colour write mask. stored inverted so that the zero value writes
	// every component
	masked [4]bool

	calls      []string
	draws      []Draw
	fills      []Fill
	badDeletes int
}

// NewDevice is the preferred method of initialisation for the Device type.
func NewDevice(caps gpu.Capabilities) *Device {
	return &Device{
		Caps: caps,
		live: make(map[gpu.Handle]kind),
		fbos: make(map[gpu.Handle]*framebuffer),
	}
}

// FullCapabilities returns a capabilities value with every feature supported.
func FullCapabilities() gpu.Capabilities {
	return gpu.Capabilities{
		Framebuffers:       true,
		FloatTextures:      true,
		DepthTextures:      true,
		PackedDepthStencil: true,
	}
}

func (dev *Device) record(format string, args ...any) {
	dev.calls = append(dev.calls, fmt.Sprintf(format, args...))
}

func (dev *Device) create(k kind) (gpu.Handle, error) {
	dev.created++
	if dev.FailCreate > 0 && dev.created == dev.FailCreate {
		dev.record("create %s failed", k)
		return 0, curated.Capabilityf(CreateFailed, k)
	}
	dev.next++
	dev.live[dev.next] = k
	return dev.next, nil
}

func (dev *Device) delete(h gpu.Handle, k kind) {
	if lk, ok := dev.live[h]; !ok || lk != k {
		dev.badDeletes++
		dev.record("delete %s %d (not live)", k, h)
		return
	}
	delete(dev.live, h)
	dev.record("delete %s %d", k, h)
}

// Capabilities implements the gpu.Device interface.
func (dev *Device) Capabilities() gpu.Capabilities {
	return dev.Caps
}

// CreateColorTexture implements the gpu.Device interface.
func (dev *Device) CreateColorTexture(format gpu.Format, width, height int32) (gpu.Handle, error) {
	h, err := dev.create(colorTexture)
	if err != nil {
		return 0, err
	}
	dev.record("create colour texture %d %s %dx%d", h, format, width, height)
	return h, nil
}

// CreateDepthTexture implements the gpu.Device interface.
func (dev *Device) CreateDepthTexture(packedStencil bool, width, height int32) (gpu.Handle, error) {
	h, err := dev.create(depthTexture)
	if err != nil {
		return 0, err
	}
	dev.record("create depth texture %d packed=%v %dx%d", h, packedStencil, width, height)
	return h, nil
}

// CreateStencilRenderbuffer implements the gpu.Device interface.
func (dev *Device) CreateStencilRenderbuffer(width, height int32) (gpu.Handle, error) {
	h, err := dev.create(stencilRenderbuffer)
	if err != nil {
		return 0, err
	}
	dev.record("create stencil renderbuffer %d %dx%d", h, width, height)
	return h, nil
}

// CreateFramebuffer implements the gpu.Device interface.
func (dev *Device) CreateFramebuffer() (gpu.Handle, error) {
	h, err := dev.create(framebufferObject)
	if err != nil {
		return 0, err
	}
	dev.fbos[h] = &framebuffer{}
	dev.bound = h
	dev.record("create framebuffer %d", h)
	return h, nil
}

// BindFramebuffer implements the gpu.Device interface.
func (dev *Device) BindFramebuffer(fbo gpu.Handle) {
	dev.bound = fbo
	dev.record("bind framebuffer %d", fbo)
}

// AttachColor implements the gpu.Device interface.
func (dev *Device) AttachColor(tex gpu.Handle) {
	if fb, ok := dev.fbos[dev.bound]; ok {
		fb.color = tex
	}
	dev.record("attach colour %d to %d", tex, dev.bound)
}

// AttachDepth implements the gpu.Device interface.
func (dev *Device) AttachDepth(tex gpu.Handle, withStencil bool) {
	if fb, ok := dev.fbos[dev.bound]; ok {
		fb.depth = tex
		fb.packed = withStencil
	}
	dev.record("attach depth %d to %d stencil=%v", tex, dev.bound, withStencil)
}

// AttachStencil implements the gpu.Device interface.
func (dev *Device) AttachStencil(rb gpu.Handle) {
	if fb, ok := dev.fbos[dev.bound]; ok {
		fb.stencil = rb
	}
	dev.record("attach stencil %d to %d", rb, dev.bound)
}

// FramebufferStatus implements the gpu.Device interface.
func (dev *Device) FramebufferStatus() gpu.Status {
	if dev.ForceStatus != gpu.Complete {
		return dev.ForceStatus
	}

	fb, ok := dev.fbos[dev.bound]
	if !ok {
		// system framebuffer
		return gpu.Complete
	}
	if fb.color == 0 {
		return gpu.IncompleteMissingAttachment
	}
	if fb.stencil != 0 && dev.RejectSeparateStencil {
		return gpu.IncompleteAttachment
	}
	return gpu.Complete
}

// DeleteTexture implements the gpu.Device interface.
func (dev *Device) DeleteTexture(tex gpu.Handle) {
	k, ok := dev.live[tex]
	if !ok || k == colorTexture {
		dev.delete(tex, colorTexture)
		return
	}
	dev.delete(tex, depthTexture)
}

// DeleteRenderbuffer implements the gpu.Device interface.
func (dev *Device) DeleteRenderbuffer(rb gpu.Handle) {
	dev.delete(rb, stencilRenderbuffer)
}

// DeleteFramebuffer implements the gpu.Device interface.
func (dev *Device) DeleteFramebuffer(fbo gpu.Handle) {
	dev.delete(fbo, framebufferObject)
	delete(dev.fbos, fbo)
	if dev.bound == fbo {
		dev.bound = 0
	}
}

// Viewport implements the gpu.Device interface.
func (dev *Device) Viewport(x, y, width, height int32) {
	dev.viewport = [4]int32{x, y, width, height}
	dev.record("viewport %d %d %d %d", x, y, width, height)
}

// UseProgram implements the gpu.Device interface.
func (dev *Device) UseProgram(prog gpu.Handle) {
	dev.program = prog
	dev.record("use program %d", prog)
}

// BindTexture implements the gpu.Device interface.
func (dev *Device) BindTexture(unit int, tex gpu.Handle) {
	if unit >= 0 && unit < len(dev.units) {
		dev.units[unit] = tex
	}
	dev.record("bind texture %d to unit %d", tex, unit)
}

// DrawTexturedQuad implements the gpu.Device interface.
func (dev *Device) DrawTexturedQuad(width, height int32, cfg gpu.BlitConfig) {
	dev.draws = append(dev.draws, Draw{
		FBO:      dev.bound,
		Program:  dev.program,
		Buffer:   dev.buffer,
		Texture:  dev.units[0],
		LUT:      dev.units[1],
		Texture2: dev.units[2],
		Viewport: dev.viewport,
		Width:    width,
		Height:   height,
		Config:   cfg,
		Mask:     dev.mask(),
	})
	dev.record("draw quad %dx%d to %d (%s)", width, height, dev.bound, cfg)
}

// FillRect implements the gpu.Device interface.
func (dev *Device) FillRect(x, y, width, height int32, c gpu.Color) {
	dev.fills = append(dev.fills, Fill{FBO: dev.bound, Buffer: dev.buffer, X: x, Y: y, W: width, H: height, Color: c})
	dev.record("fill %d %d %d %d in %d", x, y, width, height, dev.bound)
}

// DrawBuffer implements the gpu.Device interface.
func (dev *Device) DrawBuffer(buf gpu.Buffer) {
	dev.buffer = buf
	dev.record("draw buffer %s", buf)
}

// ColorMask implements the gpu.Device interface.
func (dev *Device) ColorMask(r, g, b, a bool) {
	dev.masked = [4]bool{!r, !g, !b, !a}
	dev.record("colour mask %v %v %v %v", r, g, b, a)
}

func (dev *Device) mask() [4]bool {
	return [4]bool{!dev.masked[0], !dev.masked[1], !dev.masked[2], !dev.masked[3]}
}

// Calls returns a copy of the list of calls made to the device.
func (dev *Device) Calls() []string {
	return append([]string{}, dev.calls...)
}

// Draws returns a copy of the list of quad draws.
func (dev *Device) Draws() []Draw {
	return append([]Draw{}, dev.draws...)
}

// Fills returns a copy of the list of rectangle fills.
func (dev *Device) Fills() []Fill {
	return append([]Fill{}, dev.fills...)
}

// ClearCalls forgets all recorded calls, draws and fills.
func (dev *Device) ClearCalls() {
	dev.calls = dev.calls[:0]
	dev.draws = dev.draws[:0]
	dev.fills = dev.fills[:0]
}

// Live returns the number of objects that have been created and not yet
// deleted.
func (dev *Device) Live() int {
	return len(dev.live)
}

// BadDeletes returns the number of delete calls made for objects that were
// not live.
func (dev *Device) BadDeletes() int {
	return dev.badDeletes
}

// ColorOf returns the colour texture attached to the framebuffer. Zero if the
// framebuffer does not exist or has no colour attachment.
func (dev *Device) ColorOf(fbo gpu.Handle) gpu.Handle {
	if fb, ok := dev.fbos[fbo]; ok {
		return fb.color
	}
	return 0
}

// Buffer returns the currently selected draw buffer.
func (dev *Device) Buffer() gpu.Buffer {
	return dev.buffer
}

// Bound returns the currently bound framebuffer.
func (dev *Device) Bound() gpu.Handle {
	return dev.bound
}
