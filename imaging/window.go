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
	"fmt"

	"github.com/stimkit/imagingpipe/assert"
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/logger"
)

// Sentinal error patterns
const (
	AlreadyOpen  = "imaging: window is already open"
	InvalidSlave = "imaging: slave windows are only possible with dual window stereo (stereo mode %s)"
)

// OpenRequest describes the window that is being opened.
type OpenRequest struct {
	Flags  Flags
	Stereo StereoMode

	Width  int32
	Height int32

	// the window is the passive right view of a dual window stereo pair. the
	// pipeline is always disabled for a slave window
	Slave bool
}

// Window is the pipeline and hook chains of an onscreen window.
type Window struct {
	dev   gpu.Device
	prefs *Preferences

	// the goroutine that created the window
	owner assert.Owner

	// the hook chains of the window. functions can be added to the chains
	// before or after the window is opened
	Hooks *hooks.Registry

	state      *State
	dispatcher *Dispatcher
	open       bool
}

// NewWindow is the preferred method of initialisation for the Window type.
// The window is in the all-off state until Open() is called.
func NewWindow(dev gpu.Device, prefs *Preferences) *Window {
	w := &Window{
		dev:   dev,
		prefs: prefs,
		owner: assert.NewOwner(),
		Hooks: hooks.NewRegistry(),
		state: NewState(),
	}
	w.dispatcher = NewDispatcher(dev, w.Hooks, w.state)
	w.dispatcher.Debug = prefs.VerbosityAbove(4)
	return w
}

func (w *Window) checkOwner(op string) {
	if !w.owner.IsOwner() {
		logger.Logf(w.prefs.VerbosityAbove(1), logTag, "%s: called from goroutine %d which does not own the window", op, assert.GetGoRoutineID())
	}
}

// State of the pipeline.
func (w *Window) State() *State {
	return w.state
}

// SetEvaluator sets the evaluator for script hook functions.
func (w *Window) SetEvaluator(e Evaluator) {
	w.dispatcher.Evaluator = e
}

// Open the window. The pipeline is configured and the default hook functions
// for the stereo mode are added. On error the window is left in the all-off
// state.
func (w *Window) Open(req OpenRequest) error {
	w.checkOwner("open")

	if w.open {
		return curated.Userf(AlreadyOpen)
	}
	if !req.Stereo.Valid() {
		return curated.Userf(InvalidStereoMode, int(req.Stereo))
	}
	if req.Flags < 0 {
		return curated.Userf(InvalidFlags, int(req.Flags))
	}
	if req.Slave && req.Stereo != DualWindow {
		return curated.Userf(InvalidSlave, req.Stereo)
	}

	flags := req.Flags
	if req.Stereo == DualWindow {
		if req.Slave {
			flags = 0
		} else {
			flags |= NeedFastBackingStore
			logger.Log(w.prefs.VerbosityAbove(3), logTag, "enabling imaging pipeline for dual window stereo")
		}
	}

	state, err := Plan(w.dev, Request{
		Flags:    flags,
		Stereo:   req.Stereo,
		Enable3D: w.prefs.Enable3D.Get().(bool),
		Width:    req.Width,
		Height:   req.Height,
		Info:     w.prefs.VerbosityAbove(2),
		Logging:  w.prefs.rendertargetVerbosity(),
	})
	if err != nil {
		return err
	}

	w.state = state
	w.dispatcher.state = state
	w.dispatcher.Width = req.Width
	w.dispatcher.Height = req.Height
	w.open = true

	if err := w.installDefaults(req); err != nil {
		_ = w.Close()
		return err
	}

	return nil
}

func (w *Window) installDefaults(req OpenRequest) error {
	if req.Slave {
		_, err := w.Hooks.AddBuiltin("IdentityBlitChain", BuiltinIdentityBlit, hooks.Tail, "")
		if err != nil {
			return err
		}
		if err := w.Hooks.Enable("IdentityBlitChain"); err != nil {
			return err
		}
		logger.Log(w.prefs.VerbosityAbove(3), logTag, "created slave window for dual window stereo")
	}

	if req.Stereo == QuadBuffered && w.prefs.StereoSyncLines.Get().(bool) {
		logger.Log(w.prefs.VerbosityAbove(3), logTag, "enabling blue line sync renderer for quad-buffered stereo")
		config := fmt.Sprintf("Height:%d", w.prefs.SyncLineHeight.Get().(int))
		for _, chain := range []string{"LeftFinalizerBlitChain", "RightFinalizerBlitChain"} {
			if _, err := w.Hooks.AddBuiltin(chain, BuiltinStereoSyncLine, hooks.Tail, config); err != nil {
				return err
			}
			if err := w.Hooks.Enable(chain); err != nil {
				return err
			}
		}
	}

	return nil
}

// ExecuteHook executes the named hook chain. See Dispatcher.Execute().
func (w *Window) ExecuteHook(name string, userData any, blitter BlitterFunc, minFBO FBOIndex, maxFBO FBOIndex) (ExecuteResult, error) {
	w.checkOwner("execute hook")

	p, ok := hooks.Lookup(name)
	if !ok {
		return ExecuteResult{Source: minFBO, Dest: maxFBO}, curated.Userf(hooks.UnknownHook, "execute", name)
	}
	return w.dispatcher.Execute(p, userData, blitter, minFBO, maxFBO)
}

// BindDrawBuffer binds the draw buffer for the view (0 for the left or mono
// view, 1 for the right view) and sets the viewport to cover it. Returns the
// size of the draw buffer.
//
// When the pipeline is disabled the views are drawn directly to the system
// framebuffer. For quad buffered stereo the back buffer of the view is
// selected and for the anaglyph modes the colour components of the view are
// selected.
func (w *Window) BindDrawBuffer(view int) (int32, int32) {
	w.checkOwner("bind draw buffer")
	if !w.state.Enabled() {
		switch {
		case w.state.Stereo.SeparateStreams():
			w.dev.DrawBuffer(eyeBuffer(view))
		case w.state.Stereo.Anaglyph():
			m := w.state.Stereo.anaglyphMask(view)
			w.dev.ColorMask(m.r, m.g, m.b, true)
		}
	}
	return w.dispatcher.bind(w.state.Target(w.state.Index(DrawBuffer, view)))
}

// the back buffer of the system framebuffer for the view
func eyeBuffer(view int) gpu.Buffer {
	if view == 1 {
		return gpu.BackRight
	}
	return gpu.BackLeft
}

// PrepareDrawing executes the UserspaceBufferDrawingPrepare chain. It should
// be called before drawing for a new frame begins.
func (w *Window) PrepareDrawing(userData any) error {
	w.checkOwner("prepare drawing")
	draw := w.state.Index(DrawBuffer, 0)
	_, err := w.dispatcher.Execute(hooks.UserspaceBufferDrawingPrepare, userData, nil, draw, draw)
	return err
}

// PreFlip executes the hook chains that move the drawn image through the
// pipeline and into the system framebuffer. It should be called once drawing
// for the frame has finished and before the buffers are swapped.
//
// The image of each view moves from the draw buffer to the processed buffer.
// For the stereo modes that merge the views, both views are given to the
// StereoCompositingBlit chain. If that chain renders nothing the views are
// merged according to the stereo mode. The image is finally written to the
// system framebuffer by the output formatting chain. If the output
// formatting chain renders nothing the image is copied to the system
// framebuffer without conversion.
//
// For quad buffered stereo there is no merge. The post compositing and output
// formatting chains are executed once for each view, with the back buffer of
// the view selected.
func (w *Window) PreFlip(userData any) error {
	w.checkOwner("preflip")

	s := w.state
	exec := func(p hooks.Point, minFBO FBOIndex, maxFBO FBOIndex) (ExecuteResult, error) {
		return w.dispatcher.Execute(p, userData, nil, minFBO, maxFBO)
	}

	draw := s.Index(DrawBuffer, 0)
	if _, err := exec(hooks.UserspaceBufferDrawingFinished, draw, draw); err != nil {
		return err
	}

	// finalizer chain for the view
	finalize := func(view int) error {
		p := hooks.LeftFinalizerBlitChain
		if view == 1 {
			p = hooks.RightFinalizerBlitChain
		}
		final := s.Index(Finalized, view)
		_, err := exec(p, final, final)
		return err
	}

	views := 1
	if s.Stereo.Stereo() {
		views = 2
	}

	if !s.Enabled() {
		if s.Stereo.Anaglyph() {
			w.dev.ColorMask(true, true, true, true)
		}
		if s.Stereo.SeparateStreams() {
			for v := range views {
				w.dev.DrawBuffer(eyeBuffer(v))
				if err := finalize(v); err != nil {
					w.dev.DrawBuffer(gpu.BackBuffer)
					return err
				}
			}
			w.dev.DrawBuffer(gpu.BackBuffer)
		} else {
			for v := range views {
				if err := finalize(v); err != nil {
					return err
				}
			}
		}

		_, err := exec(hooks.IdentityBlitChain, SystemFramebuffer, SystemFramebuffer)
		return err
	}

	var latest [2]FBOIndex
	for v := range views {
		p := hooks.StereoLeftCompositingBlit
		if v == 1 {
			p = hooks.StereoRightCompositingBlit
		}
		res, err := exec(p, s.Index(DrawBuffer, v), s.Index(ProcessedDrawBuffer, v))
		if err != nil {
			return err
		}
		latest[v] = res.Source
	}

	if s.Stereo.SeparateStreams() {
		for v := range views {
			w.dev.DrawBuffer(eyeBuffer(v))
			if err := w.output(userData, latest[v], v); err != nil {
				w.dev.DrawBuffer(gpu.BackBuffer)
				return err
			}
			if err := finalize(v); err != nil {
				w.dev.DrawBuffer(gpu.BackBuffer)
				return err
			}
		}
		w.dev.DrawBuffer(gpu.BackBuffer)
	} else {
		image := latest[0]
		if s.Flags.Has(NeedStereoMergeOp) {
			var err error
			image, err = w.merge(userData, latest[0], latest[1])
			if err != nil {
				return err
			}
		}
		if err := w.output(userData, image, 0); err != nil {
			return err
		}
		for v := range views {
			if err := finalize(v); err != nil {
				return err
			}
		}
	}

	_, err := exec(hooks.IdentityBlitChain, SystemFramebuffer, SystemFramebuffer)
	return err
}

// fits returns true if idx is a render target that is not one of the
// excluded indices and that has the size given
func (w *Window) fits(idx FBOIndex, width, height int32, exclude ...FBOIndex) bool {
	if idx == SystemFramebuffer {
		return false
	}
	for _, e := range exclude {
		if idx == e {
			return false
		}
	}
	rt := w.state.Target(idx)
	return rt != nil && rt.Width == width && rt.Height == height
}

// merge the left and right views into a single image. the result is written
// to a merge buffer, or to an unused buffer that is the size of the window,
// or to the system framebuffer. returns the index of the merged image
func (w *Window) merge(userData any, left FBOIndex, right FBOIndex) (FBOIndex, error) {
	s := w.state

	dst := SystemFramebuffer
	for _, c := range []FBOIndex{s.Index(PreConversion, 0), s.Index(PreConversion, 2)} {
		if w.fits(c, w.dispatcher.Width, w.dispatcher.Height, left, right) {
			dst = c
			break // for loop
		}
	}

	res, err := w.dispatcher.ExecuteMerge(hooks.StereoCompositingBlit, userData, nil, left, right, dst)
	if err != nil {
		return SystemFramebuffer, err
	}
	if res.Stages > 0 {
		return res.Source, nil
	}

	return dst, w.defaultMerge(left, right, dst)
}

// defaultMerge combines the views according to the stereo mode
func (w *Window) defaultMerge(left FBOIndex, right FBOIndex, dst FBOIndex) error {
	s := w.state
	d := w.dispatcher

	view := func(src FBOIndex, cfg gpu.BlitConfig) error {
		inv := &hooks.Invocation{
			Point:        hooks.StereoCompositingBlit,
			Source:       int(src),
			Dest:         int(dst),
			SourceTarget: s.Target(src),
			DestTarget:   s.Target(dst),
		}
		return d.draw(0, 0, cfg, inv, nil)
	}

	width, height := d.size(s.Target(dst))
	lcfg := gpu.DefaultBlitConfig
	rcfg := gpu.DefaultBlitConfig

	switch {
	case s.Stereo.SideBySide():
		lcfg.ScaleX, rcfg.ScaleX = 0.5, 0.5
		lcfg.OffsetX, rcfg.OffsetX = -float32(width)/4, float32(width)/4
		if s.Stereo == FreeCrossFusion {
			lcfg.OffsetX, rcfg.OffsetX = rcfg.OffsetX, lcfg.OffsetX
		}

	case s.Stereo.Compressed():
		// the origin is the bottom of the framebuffer
		lcfg.ScaleY, rcfg.ScaleY = 0.5, 0.5
		lcfg.OffsetY, rcfg.OffsetY = float32(height)/4, -float32(height)/4
		if s.Stereo == CompressedTopRightBottomLeft {
			lcfg.OffsetY, rcfg.OffsetY = rcfg.OffsetY, lcfg.OffsetY
		}

	case s.Stereo.Anaglyph():
		d.bind(s.Target(dst))
		w.dev.FillRect(0, 0, width, height, gpu.Color{A: 1.0})

		for v, src := range []FBOIndex{left, right} {
			m := s.Stereo.anaglyphMask(v)
			w.dev.ColorMask(m.r, m.g, m.b, false)
			if err := view(src, gpu.DefaultBlitConfig); err != nil {
				w.dev.ColorMask(true, true, true, true)
				return err
			}
		}
		w.dev.ColorMask(true, true, true, true)
		return nil

	default:
		// the right view of dual window stereo is displayed by the slave
		// window
		return view(left, lcfg)
	}

	if err := view(left, lcfg); err != nil {
		return err
	}
	return view(right, rcfg)
}

// output executes the post compositing and output formatting chains for the
// image. the result is written to the finalized buffer of the view. an image
// that is already in the system framebuffer is not processed further
func (w *Window) output(userData any, image FBOIndex, view int) error {
	s := w.state
	if image == SystemFramebuffer {
		return nil
	}

	// the post compositing chain must not write to its own source
	dst := s.Index(PreConversion, 2)
	if dst == image {
		dst = SystemFramebuffer
		src := s.Target(image)
		if c := s.Index(PreConversion, 0); w.fits(c, src.Width, src.Height, image) {
			dst = c
		}
	}

	res, err := w.dispatcher.Execute(hooks.PostCompositingBlit, userData, nil, image, dst)
	if err != nil {
		return err
	}
	image = res.Source
	if image == SystemFramebuffer {
		return nil
	}

	final := s.Index(Finalized, view)
	res, err = w.dispatcher.Execute(hooks.FinalOutputFormattingBlit, userData, nil, image, final)
	if err != nil {
		return err
	}
	if res.Stages == 0 && image != final {
		return w.copyToSystem(image)
	}
	return nil
}

func (w *Window) copyToSystem(src FBOIndex) error {
	inv := &hooks.Invocation{
		Source:       int(src),
		Dest:         int(SystemFramebuffer),
		SourceTarget: w.state.Target(src),
	}
	return w.dispatcher.blit(0, 0, "", inv, nil)
}

// Close the window. The CloseOnscreenWindowPreGLShutdown chain is executed,
// the render targets are destroyed and then the
// CloseOnscreenWindowPostGLShutdown chain is executed. Finally, all hook
// chains are disabled and emptied and the pipeline returns to the all-off
// state.
//
// Close can be called more than once. The first error from a shutdown chain
// is returned but does not stop the window from closing.
func (w *Window) Close() error {
	w.checkOwner("close")

	var first error

	_, err := w.dispatcher.Execute(hooks.CloseOnscreenWindowPreGLShutdown, nil, nil, SystemFramebuffer, SystemFramebuffer)
	if err != nil {
		logger.Log(w.prefs.VerbosityAbove(1), logTag, err)
		first = err
	}

	w.state.Shutdown(w.dev)

	_, err = w.dispatcher.Execute(hooks.CloseOnscreenWindowPostGLShutdown, nil, nil, SystemFramebuffer, SystemFramebuffer)
	if err != nil {
		logger.Log(w.prefs.VerbosityAbove(1), logTag, err)
		if first == nil {
			first = err
		}
	}

	w.Hooks.ResetAll()
	w.open = false

	return first
}
