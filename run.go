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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/gpu/gl32"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/imaging"
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/prefs"
	"github.com/stimkit/imagingpipe/script"
	"github.com/stimkit/imagingpipe/sdlwindows"
	"github.com/stimkit/imagingpipe/version"
)

// size of the moving square drawn by the runner
const squareSize = 64

// runner opens a window and draws a moving square into it for a fixed number
// of frames, running the imaging pipeline for every frame.
//
// All methods MUST ONLY be called from the #mainthread.
type runner struct {
	wnd      *sdlwindows.Window
	dev      *gl32.Device
	pipeline *imaging.Window
	pref     *imaging.Preferences

	// changes to the preferences file are loaded between frames. nil if the
	// file could not be watched
	watcher *prefs.Watcher

	// program used by the invert stage. zero if no invert stage was added
	invert gpu.Handle

	// program used by the merge stage. zero if no merge stage was added
	merge gpu.Handle

	frame  int
	frames int

	// the result of the run is sent on the done channel exactly once
	done     chan error
	finished bool
}

// newRunner is run on the main thread by the creator channel of mainSync.
func newRunner(req imaging.OpenRequest, pref *imaging.Preferences, frames int, vsync bool, expr string, invert bool, merge bool, done chan error) (*runner, error) {
	// quad buffered stereo needs a stereo context
	stereo := req.Stereo == imaging.QuadBuffered

	wnd, err := sdlwindows.NewWindow(version.ApplicationName, req.Width, req.Height, stereo, vsync)
	if err != nil {
		return nil, err
	}

	r := &runner{
		wnd:    wnd,
		pref:   pref,
		frames: frames,
		done:   done,
	}

	r.dev, err = gl32.NewDevice()
	if err != nil {
		wnd.Destroy(nil)
		return nil, err
	}

	// the size of the drawable area takes precedence over the requested size
	req.Width, req.Height = wnd.Size()

	r.pipeline = imaging.NewWindow(r.dev, pref)

	if expr != "" {
		eval, err := script.NewEvaluator(os.Stdout)
		if err != nil {
			r.Destroy(nil)
			return nil, err
		}
		r.pipeline.SetEvaluator(eval)

		if _, err := r.pipeline.Hooks.AddScript(hooks.PostCompositingBlit.String(), "user script", hooks.Tail, expr); err != nil {
			r.Destroy(nil)
			return nil, err
		}
		if err := r.pipeline.Hooks.Enable(hooks.PostCompositingBlit.String()); err != nil {
			r.Destroy(nil)
			return nil, err
		}
		req.Flags |= imaging.NeedImageProcessing
	}

	if invert {
		r.invert, err = gl32.CompileProgram(gl32.VertexShader, gl32.InvertFragmentShader)
		if err != nil {
			r.Destroy(nil)
			return nil, err
		}

		for _, p := range []hooks.Point{hooks.StereoLeftCompositingBlit, hooks.StereoRightCompositingBlit} {
			if _, err := r.pipeline.Hooks.AddShader(p.String(), "invert", hooks.Tail, r.invert, "", 0); err != nil {
				r.Destroy(nil)
				return nil, err
			}
			if err := r.pipeline.Hooks.Enable(p.String()); err != nil {
				r.Destroy(nil)
				return nil, err
			}
		}
		req.Flags |= imaging.NeedImageProcessing
	}

	if merge {
		r.merge, err = gl32.CompileProgram(gl32.VertexShader, gl32.MergeFragmentShader)
		if err != nil {
			r.Destroy(nil)
			return nil, err
		}
		if _, err := r.pipeline.Hooks.AddShader(hooks.StereoCompositingBlit.String(), "merge", hooks.Tail, r.merge, "", 0); err != nil {
			r.Destroy(nil)
			return nil, err
		}
		if err := r.pipeline.Hooks.Enable(hooks.StereoCompositingBlit.String()); err != nil {
			r.Destroy(nil)
			return nil, err
		}
	}

	if err := r.pipeline.Open(req); err != nil {
		r.Destroy(nil)
		return nil, err
	}

	logger.Logf(logger.Allow, logTag, "pipeline: %s", r.pipeline.State().Flags)

	r.watcher, err = pref.Watch()
	if err != nil {
		logger.Log(logger.Allow, logTag, err)
	}

	return r, nil
}

const logTag = "run"

// finish sends the result of the run. subsequent calls do nothing.
func (r *runner) finish(err error) {
	if r.finished {
		return
	}
	r.finished = true
	r.done <- err
}

// Service implements the WindowCreator interface.
func (r *runner) Service() {
	if r.finished {
		return
	}

	if !r.wnd.Poll() || r.frame >= r.frames {
		r.finish(nil)
		return
	}

	if r.watcher != nil {
		select {
		case <-r.watcher.Changed():
			if err := r.pref.Load(); err != nil {
				logger.Log(logger.Allow, logTag, err)
			} else {
				logger.Log(logger.Allow, logTag, "preferences reloaded")
			}
		default:
		}
	}

	if err := r.render(); err != nil {
		r.finish(fmt.Errorf("frame %d: %w", r.frame, err))
		return
	}

	r.wnd.Swap()
	r.frame++
}

func (r *runner) render() error {
	if err := r.pipeline.PrepareDrawing(r.frame); err != nil {
		return err
	}

	views := 1
	if r.pipeline.State().Stereo.Stereo() {
		views = 2
	}

	for v := range views {
		w, h := r.pipeline.BindDrawBuffer(v)
		r.dev.FillRect(0, 0, w, h, gpu.Color{R: 0.5, G: 0.5, B: 0.5, A: 1.0})

		// the square moves across the window. the right eye view is offset
		// to give a sense of depth
		travel := max(w-squareSize, 1)
		x := int32(r.frame*4) % travel
		if v == 1 {
			x = (x + 8) % travel
		}
		y := (h - squareSize) / 2
		r.dev.FillRect(x, y, squareSize, squareSize, gpu.Color{R: 1.0, G: 1.0, B: 1.0, A: 1.0})
	}

	return r.pipeline.PreFlip(r.frame)
}

// Destroy implements the WindowCreator interface.
func (r *runner) Destroy(output io.Writer) {
	if r.watcher != nil {
		_ = r.watcher.Close()
		r.watcher = nil
	}
	if r.pipeline != nil {
		if err := r.pipeline.Close(); err != nil && output != nil {
			io.WriteString(output, fmt.Sprintf("* error closing pipeline: %v\n", err))
		}
		r.pipeline = nil
	}
	if r.invert != 0 {
		gl32.DeleteProgram(r.invert)
		r.invert = 0
	}
	if r.merge != 0 {
		gl32.DeleteProgram(r.merge)
		r.merge = 0
	}
	if r.dev != nil {
		r.dev.Destroy()
		r.dev = nil
	}
	if r.wnd != nil {
		r.wnd.Destroy(output)
		r.wnd = nil
	}

	// the window may have been destroyed before the run completed
	r.finish(nil)
}
