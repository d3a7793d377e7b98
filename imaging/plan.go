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
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/rendertarget"
)

// Sentinal error patterns
const (
	InvalidStereoMode    = "imaging: invalid stereo mode (%d)"
	InvalidFlags         = "imaging: invalid imaging mode (%d)"
	NoFramebufferSupport = "imaging: the graphics hardware or driver does not support framebuffer objects. " +
		"the imaging pipeline can not be used. a more recent graphics card or driver is required"
	TooManyTargets = "imaging: render target table is full (%d entries)"
	StageFailed    = "imaging: could not setup stage %d of imaging pipeline: %v"
)

const logTag = "imaging"

// Request for a pipeline configuration.
type Request struct {
	Flags    Flags
	Stereo   StereoMode
	Enable3D bool

	// size of the window
	Width  int32
	Height int32

	// permission for log entries describing the configuration. nil means
	// no log entries are made
	Info logger.Permission

	// permissions for log entries made while creating render targets. the
	// zero value means no log entries are made
	Logging rendertarget.Verbosity
}

// planner allocates render targets into the table of the state
type planner struct {
	dev   gpu.Device
	state *State
	log   rendertarget.Verbosity
}

func (p *planner) alloc(format gpu.Format, depthStencil bool, width, height int32) (FBOIndex, error) {
	if len(p.state.Targets) >= MaxRenderTargets {
		return SystemFramebuffer, curated.Internalf(TooManyTargets, MaxRenderTargets)
	}
	rt, err := rendertarget.Create(p.dev, format, depthStencil, width, height, p.log)
	if err != nil {
		return SystemFramebuffer, err
	}
	p.state.Targets = append(p.state.Targets, rt)
	return FBOIndex(len(p.state.Targets) - 1), nil
}

// Plan the pipeline for the request, allocating render targets as required.
//
// A request with flags of zero or less results in the all-off state. On error
// every render target allocated by the function is destroyed and no state is
// returned.
func Plan(dev gpu.Device, req Request) (*State, error) {
	if !req.Stereo.Valid() {
		return nil, curated.Userf(InvalidStereoMode, int(req.Stereo))
	}

	state := NewState()
	state.Stereo = req.Stereo

	flags := req.Flags
	if flags > 0 {
		if req.Stereo.SideBySide() || flags.Has(HalfWidthWindow) {
			state.Special |= HalfWidthWindow
		}
		if flags.Has(HalfHeightWindow) {
			state.Special |= HalfHeightWindow
		}
		flags &^= HalfWidthWindow | HalfHeightWindow
	} else if req.Stereo.SideBySide() {
		state.Special |= HalfWidthWindow
	}

	if flags <= 0 {
		return state, nil
	}

	logger.Logf(req.Info, logTag, "imaging pipeline enabled with requested flags %s", req.Flags)

	if !dev.Capabilities().Framebuffers {
		return nil, curated.Capabilityf(NoFramebufferSupport)
	}

	needZBuffer := req.Enable3D
	needSeparateStreams := req.Stereo.SeparateStreams()
	needImageProcessing := flags.Has(NeedImageProcessing)
	needOutputConversion := flags.Has(NeedOutputConversion)
	needFastBackingStore := flags.Has(NeedFastBackingStore)
	if needOutputConversion || needImageProcessing || req.Stereo.Stereo() {
		needFastBackingStore = true
	}

	format := flags.Format()

	// draw buffers and processed buffers are smaller than the window for some
	// configurations. the merge buffers are always the full size
	width, height := req.Width, req.Height
	if state.Special&HalfWidthWindow == HalfWidthWindow {
		width /= 2
	}
	if state.Special&HalfHeightWindow == HalfHeightWindow {
		height /= 2
	}

	p := planner{dev: dev, state: state, log: req.Logging}
	bind := func(role Role, slot int, b Binding) {
		state.bindings[role][slot] = b
	}
	fail := func(stage int, err error) (*State, error) {
		state.Shutdown(dev)
		return nil, curated.Errorf(StageFailed, stage, err)
	}

	// stage 1: draw buffers
	if needFastBackingStore {
		idx, err := p.alloc(format, needZBuffer, width, height)
		if err != nil {
			return fail(1, err)
		}
		bind(DrawBuffer, 0, Allocated{Index: idx})

		if req.Stereo.Stereo() {
			idx, err := p.alloc(format, needZBuffer, width, height)
			if err != nil {
				return fail(1, err)
			}
			bind(DrawBuffer, 1, Allocated{Index: idx})
		}
	}

	// stage 2: processed buffers
	if needImageProcessing {
		idx, err := p.alloc(format, false, width, height)
		if err != nil {
			return fail(2, err)
		}
		bind(ProcessedDrawBuffer, 0, Allocated{Index: idx})

		if req.Stereo.Stereo() {
			idx, err := p.alloc(format, false, width, height)
			if err != nil {
				return fail(2, err)
			}
			bind(ProcessedDrawBuffer, 1, Allocated{Index: idx})
		}

		idx, err = p.alloc(format, false, width, height)
		if err != nil {
			return fail(2, err)
		}
		bind(ProcessedDrawBuffer, 2, Allocated{Index: idx})
	} else {
		bind(ProcessedDrawBuffer, 0, AliasOf{Role: DrawBuffer, Slot: 0})
		bind(ProcessedDrawBuffer, 1, AliasOf{Role: DrawBuffer, Slot: 1})
	}

	// stage 3: merge buffers. both views share the same merge buffer
	if req.Stereo.Stereo() && !needSeparateStreams && needOutputConversion {
		idx, err := p.alloc(format, false, req.Width, req.Height)
		if err != nil {
			return fail(3, err)
		}
		bind(PreConversion, 0, Allocated{Index: idx})
		bind(PreConversion, 1, Allocated{Index: idx})

		idx, err = p.alloc(format, false, req.Width, req.Height)
		if err != nil {
			return fail(3, err)
		}
		bind(PreConversion, 2, Allocated{Index: idx})
	} else {
		bind(PreConversion, 0, AliasOf{Role: ProcessedDrawBuffer, Slot: 0})
		bind(PreConversion, 1, AliasOf{Role: ProcessedDrawBuffer, Slot: 1})
		bind(PreConversion, 2, AliasOf{Role: ProcessedDrawBuffer, Slot: 2})
	}

	// stage 4: finalized buffers are always the system framebuffer. they are
	// already bound that way by NewState()

	// normalised feature word
	var normalised Flags
	if needSeparateStreams {
		normalised |= NeedSeparateStreams
	} else if req.Stereo.Stereo() {
		normalised |= NeedStereoMergeOp
	}
	if needFastBackingStore {
		normalised |= NeedFastBackingStore
	}
	if needOutputConversion {
		normalised |= NeedOutputConversion
	}
	if needImageProcessing {
		normalised |= NeedImageProcessing
	}
	normalised |= flags.precision()
	state.Flags = normalised

	logger.Logf(req.Info, logTag, "imaging pipeline configured with flags %s and %d render targets", state.Flags, state.Count())

	return state, nil
}
