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
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/rendertarget"
)

// Sentinal error patterns
const (
	InternalError    = "imaging: internal error: unknown hook function type (%T)"
	InvalidHookPoint = "imaging: internal error: invalid hook point (%d)"
	NoEvaluator      = "imaging: no script evaluator for hook function (%s)"
	SlotFailed       = "imaging: %s slot %d (%s): %v"
)

// Evaluator runs the expression of a script hook function. Evaluate() is
// called synchronously and can block for as long as the expression takes.
type Evaluator interface {
	Evaluate(expr string, inv *hooks.Invocation) error
}

// BlitterFunc replaces the default quad blit of shader stages. When it is
// called the destination framebuffer is bound, the viewport is set, the
// program is in use, the colour texture of the source is bound to texture
// unit 0 and the lookup texture to unit 1. When merging a stereo pair the
// colour texture of the right view is bound to unit 2. A nil source or
// destination is the system framebuffer.
type BlitterFunc func(dev gpu.Device, src, dst *rendertarget.RenderTarget, cfg gpu.BlitConfig) error

// ExecuteResult is the outcome of Dispatcher.Execute().
type ExecuteResult struct {
	// the final pair of render targets. Source holds the most recently
	// rendered image
	Source FBOIndex
	Dest   FBOIndex

	// number of hook functions that were executed
	Stages int
}

// Dispatcher executes the hook chains of a window.
type Dispatcher struct {
	dev      gpu.Device
	registry *hooks.Registry
	state    *State

	// evaluator for script hook functions. script hook functions fail if
	// this is nil
	Evaluator Evaluator

	// size of the system framebuffer
	Width  int32
	Height int32

	// permission for the log entry made for each slot that is executed
	Debug logger.Permission
}

// NewDispatcher is the preferred method of initialisation for the Dispatcher
// type.
func NewDispatcher(dev gpu.Device, registry *hooks.Registry, state *State) *Dispatcher {
	return &Dispatcher{
		dev:      dev,
		registry: registry,
		state:    state,
		Debug:    logger.Deny,
	}
}

// Execute the hook chain. The chain is a no-op if it is disabled.
//
// The pair of render targets starts as (minFBO, maxFBO). Shader stages and
// the identity blit read from the source and write to the destination and
// then swap the pair. Native and script stages are given the pair but do
// not change it. The FlipFBOs built-in swaps the pair without rendering.
func (d *Dispatcher) Execute(point hooks.Point, userData any, blitter BlitterFunc, minFBO FBOIndex, maxFBO FBOIndex) (ExecuteResult, error) {
	return d.execute(point, userData, blitter, minFBO, maxFBO, nil)
}

// ExecuteMerge executes the hook chain with two sources. It is used to merge
// the left and right views of a stereo pair into a single image.
//
// The left view is the source and the right view is the second source. The
// colour texture of the second source is bound to texture unit 2 for every
// rendering stage until the pair is swapped for the first time. From then on
// the source holds the merged image and the second source is no longer
// given to the stages.
func (d *Dispatcher) ExecuteMerge(point hooks.Point, userData any, blitter BlitterFunc, left FBOIndex, right FBOIndex, dst FBOIndex) (ExecuteResult, error) {
	return d.execute(point, userData, blitter, left, dst, &right)
}

func (d *Dispatcher) execute(point hooks.Point, userData any, blitter BlitterFunc, minFBO FBOIndex, maxFBO FBOIndex, second *FBOIndex) (ExecuteResult, error) {
	res := ExecuteResult{Source: minFBO, Dest: maxFBO}

	if !point.Valid() {
		return res, curated.Internalf(InvalidHookPoint, int(point))
	}

	enabled, funcs := d.registry.Chain(point)
	if !enabled {
		return res, nil
	}

	for slot, f := range funcs {
		logger.Logf(d.Debug, logTag, "Hookchain %d : Slot %d: Id='%s' : %s", int(point), slot, f.ID, f.Describe())

		inv := &hooks.Invocation{
			Point:        point,
			Slot:         slot,
			ID:           f.ID,
			UserData:     userData,
			Source:       int(res.Source),
			Dest:         int(res.Dest),
			SourceTarget: d.state.Target(res.Source),
			DestTarget:   d.state.Target(res.Dest),
		}
		if second != nil {
			inv.SecondSource = int(*second)
			inv.SecondSourceTarget = d.state.Target(*second)
		}

		swap, err := d.executeSlot(f, inv, blitter)
		if err != nil {
			return res, curated.Errorf(SlotFailed, point, slot, f.ID, err)
		}

		res.Stages++
		if swap {
			res.Source, res.Dest = res.Dest, res.Source
			second = nil
		}
	}

	return res, nil
}

// executeSlot returns true if the source and destination should be swapped
func (d *Dispatcher) executeSlot(f *hooks.Function, inv *hooks.Invocation, blitter BlitterFunc) (bool, error) {
	switch p := f.Payload.(type) {
	case hooks.Shader:
		if err := d.blit(p.Program, p.LUTTexture, p.Blitter, inv, blitter); err != nil {
			return false, err
		}
		return true, nil

	case hooks.Native:
		if p.Func == nil {
			return false, curated.Userf(hooks.NoPayload, "execute", f.ID)
		}
		return false, p.Func(inv)

	case hooks.Script:
		if d.Evaluator == nil {
			return false, curated.Userf(NoEvaluator, f.ID)
		}
		return false, d.Evaluator.Evaluate(p.Expr, inv)

	case hooks.Builtin:
		b, ok := builtins[f.ID]
		if !ok {
			return false, curated.Userf(UnknownBuiltin, f.ID)
		}
		return b(d, inv, p.Config, blitter)
	}

	return false, curated.Internalf(InternalError, f.Payload)
}

// size of the render target. a nil render target is the system framebuffer
func (d *Dispatcher) size(rt *rendertarget.RenderTarget) (int32, int32) {
	if rt == nil {
		return d.Width, d.Height
	}
	return rt.Width, rt.Height
}

// bind the render target for drawing and set the viewport to cover it
func (d *Dispatcher) bind(rt *rendertarget.RenderTarget) (int32, int32) {
	if rt == nil {
		d.dev.BindFramebuffer(0)
	} else {
		d.dev.BindFramebuffer(rt.FBO)
	}
	w, h := d.size(rt)
	d.dev.Viewport(0, 0, w, h)
	return w, h
}

// blit the source of the invocation to the destination with the program.
// program zero is the identity program of the device
func (d *Dispatcher) blit(program gpu.Handle, lut gpu.Handle, config string, inv *hooks.Invocation, blitter BlitterFunc) error {
	cfg, err := ParseBlitterConfig(config)
	if err != nil {
		return err
	}
	return d.draw(program, lut, cfg, inv, blitter)
}

// draw is the same as blit() but with a parsed configuration
func (d *Dispatcher) draw(program gpu.Handle, lut gpu.Handle, cfg gpu.BlitConfig, inv *hooks.Invocation, blitter BlitterFunc) error {
	var err error

	w, h := d.bind(inv.DestTarget)
	d.dev.UseProgram(program)

	var tex gpu.Handle
	if inv.SourceTarget != nil {
		tex = inv.SourceTarget.Color
	}
	d.dev.BindTexture(0, tex)
	d.dev.BindTexture(1, lut)
	if inv.SecondSourceTarget != nil {
		d.dev.BindTexture(2, inv.SecondSourceTarget.Color)
	}

	if blitter != nil {
		err = blitter(d.dev, inv.SourceTarget, inv.DestTarget, cfg)
	} else {
		d.dev.DrawTexturedQuad(w, h, cfg)
	}

	if inv.SecondSourceTarget != nil {
		d.dev.BindTexture(2, 0)
	}
	d.dev.UseProgram(0)

	return err
}
