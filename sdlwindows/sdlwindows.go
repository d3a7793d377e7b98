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

// Package sdlwindows opens an onscreen window with an OpenGL 3.2 core profile
// context. It is the windowing glue used by the RUN mode of the command line
// tool: the imaging pipeline itself knows nothing about windows and only
// requires that the context is current when it is used.
//
// Everything in the package MUST ONLY be called from the #mainthread.
package sdlwindows

import (
	"fmt"
	"io"
	"runtime"

	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/version"
	"github.com/veandco/go-sdl2/sdl"
)

const logTag = "sdl"

// Window is an SDL window and its OpenGL context.
type Window struct {
	window  *sdl.Window
	context sdl.GLContext

	// a quit event has been received
	quit bool
}

// NewWindow is the preferred method of initialisation for the Window type.
// The OpenGL context is current when the function returns.
//
// If stereo is true a context with separate left and right back buffers is
// requested. Not all hardware supports this and failure to create the
// context in that case is an error.
func NewWindow(title string, width int32, height int32, stereo bool, vsync bool) (*Window, error) {
	// the SDL package calls LockOSThread() but we call it here too. it can't
	// hurt and we never unlock it in any case
	runtime.LockOSThread()

	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	attrs := []struct {
		attr  sdl.GLattr
		value int
	}{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 3},
		{sdl.GL_CONTEXT_MINOR_VERSION, 2},
		{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
		{sdl.GL_DOUBLEBUFFER, 1},
	}
	if stereo {
		attrs = append(attrs, struct {
			attr  sdl.GLattr
			value int
		}{sdl.GL_STEREO, 1})
	}
	for _, a := range attrs {
		err = sdl.GLSetAttribute(a.attr, a.value)
		if err != nil {
			sdl.Quit()
			return nil, fmt.Errorf("sdl: %w", err)
		}
	}

	var sdlVersion sdl.Version
	sdl.VERSION(&sdlVersion)
	logger.Logf(logger.Allow, logTag, "version %d.%d.%d", sdlVersion.Major, sdlVersion.Minor, sdlVersion.Patch)

	wnd := &Window{}

	v, _, _ := version.Version()
	wnd.window, err = sdl.CreateWindow(fmt.Sprintf("%s (%s)", title, v),
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		width, height,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	wnd.context, err = wnd.window.GLCreateContext()
	if err != nil {
		wnd.Destroy(nil)
		return nil, fmt.Errorf("sdl: %w", err)
	}

	err = wnd.window.GLMakeCurrent(wnd.context)
	if err != nil {
		wnd.Destroy(nil)
		return nil, fmt.Errorf("sdl: %w", err)
	}

	swap := 0
	if vsync {
		swap = 1
	}
	if err := sdl.GLSetSwapInterval(swap); err != nil {
		logger.Logf(logger.Allow, logTag, "swap interval: %v", err)
	}

	return wnd, nil
}

// Size returns the size of the drawable area of the window in pixels. This
// may be different to the size requested in NewWindow() on high DPI
// displays.
func (wnd *Window) Size() (int32, int32) {
	return wnd.window.GLGetDrawableSize()
}

// Swap the front and back buffers.
func (wnd *Window) Swap() {
	wnd.window.GLSwap()
}

// Poll services all pending SDL events. Returns false if the window has been
// asked to close.
func (wnd *Window) Poll() bool {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			wnd.quit = true
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYDOWN && ev.Keysym.Sym == sdl.K_ESCAPE {
				wnd.quit = true
			}
		}
	}
	return !wnd.quit
}

// Destroy the window and its context. Output is used for any messages that
// need to be shown to the user and can be nil.
func (wnd *Window) Destroy(output io.Writer) {
	if wnd.context != nil {
		sdl.GLDeleteContext(wnd.context)
		wnd.context = nil
	}
	if wnd.window != nil {
		if err := wnd.window.Destroy(); err != nil && output != nil {
			io.WriteString(output, fmt.Sprintf("sdl: %v\n", err))
		}
		wnd.window = nil
	}
	sdl.Quit()
}
