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

package imaging_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/gpu/simgpu"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/imaging"
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/rendertarget"
	"github.com/stimkit/imagingpipe/test"
)

func newPreferences(t *testing.T) *imaging.Preferences {
	t.Helper()
	p, err := imaging.NewPreferencesFile(filepath.Join(t.TempDir(), imaging.PrefsFile))
	test.DemandSuccess(t, err)
	return p
}

func newWindow(t *testing.T) (*simgpu.Device, *imaging.Window) {
	t.Helper()
	dev := simgpu.NewDevice(simgpu.FullCapabilities())
	return dev, imaging.NewWindow(dev, newPreferences(t))
}

func TestOpenClose(t *testing.T) {
	dev, w := newWindow(t)
	test.ExpectFailure(t, w.State().Enabled())

	err := w.Open(imaging.OpenRequest{
		Flags:  imaging.NeedFastBackingStore | imaging.NeedImageProcessing,
		Stereo: imaging.AnaglyphRedGreen,
		Width:  800,
		Height: 600,
	})
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, w.State().Enabled())

	// two draw buffers, two processed buffers and a bounce buffer. a colour
	// texture and a framebuffer for each
	test.ExpectEquality(t, w.State().Count(), 5)
	test.ExpectEquality(t, dev.Live(), 10)

	// a window can only be opened once
	err = w.Open(imaging.OpenRequest{Width: 800, Height: 600})
	test.ExpectSuccess(t, curated.Is(err, imaging.AlreadyOpen))

	test.ExpectSuccess(t, w.Close())
	test.ExpectFailure(t, w.State().Enabled())
	test.ExpectEquality(t, w.State().Count(), 0)
	test.ExpectEquality(t, dev.Live(), 0)

	test.ExpectSuccess(t, w.Close())
	test.ExpectEquality(t, dev.BadDeletes(), 0)

	// the window can be opened again after it has been closed
	err = w.Open(imaging.OpenRequest{Width: 800, Height: 600})
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, w.Close())
}

func TestCloseSequence(t *testing.T) {
	dev, w := newWindow(t)

	var order []string
	var liveBefore, liveAfter int

	_, err := w.Hooks.AddNative("CloseOnscreenWindowPreGLShutdown", "pre", hooks.Tail, func(inv *hooks.Invocation) error {
		order = append(order, "pre")
		liveBefore = dev.Live()
		return nil
	})
	test.DemandSuccess(t, err)
	_, err = w.Hooks.AddNative("CloseOnscreenWindowPostGLShutdown", "post", hooks.Tail, func(inv *hooks.Invocation) error {
		order = append(order, "post")
		liveAfter = dev.Live()
		return nil
	})
	test.DemandSuccess(t, err)
	_ = w.Hooks.Enable("CloseOnscreenWindowPreGLShutdown")
	_ = w.Hooks.Enable("CloseOnscreenWindowPostGLShutdown")

	err = w.Open(imaging.OpenRequest{Flags: imaging.NeedFastBackingStore, Width: 640, Height: 480})
	test.DemandSuccess(t, err)

	test.ExpectSuccess(t, w.Close())
	test.ExpectEquality(t, strings.Join(order, ","), "pre,post")
	test.ExpectInequality(t, liveBefore, 0)
	test.ExpectEquality(t, liveAfter, 0)

	// every chain is disabled and empty after the window has closed
	for _, c := range hooks.Catalog() {
		enabled, err := w.Hooks.Enabled(c.Name)
		test.ExpectSuccess(t, err)
		test.ExpectFailure(t, enabled, c.Name)
		n, err := w.Hooks.Len(c.Name)
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, n, 0, c.Name)
	}

	// second close does not run the shutdown chains again
	test.ExpectSuccess(t, w.Close())
	test.ExpectEquality(t, len(order), 2)
}

func TestCloseError(t *testing.T) {
	dev, w := newWindow(t)

	_, _ = w.Hooks.AddNative("CloseOnscreenWindowPreGLShutdown", "pre", hooks.Tail, func(inv *hooks.Invocation) error {
		return curated.Errorf("failed")
	})
	_ = w.Hooks.Enable("CloseOnscreenWindowPreGLShutdown")

	err := w.Open(imaging.OpenRequest{Flags: imaging.NeedFastBackingStore, Width: 640, Height: 480})
	test.DemandSuccess(t, err)

	// the window still closes and the resources are released
	err = w.Close()
	test.ExpectSuccess(t, curated.Is(err, imaging.SlotFailed))
	test.ExpectEquality(t, dev.Live(), 0)
	test.ExpectFailure(t, w.State().Enabled())
}

func TestOpenErrors(t *testing.T) {
	_, w := newWindow(t)

	err := w.Open(imaging.OpenRequest{Stereo: imaging.StereoMode(99), Width: 640, Height: 480})
	test.ExpectSuccess(t, curated.Is(err, imaging.InvalidStereoMode))

	err = w.Open(imaging.OpenRequest{Flags: imaging.Flags(-1), Width: 640, Height: 480})
	test.ExpectSuccess(t, curated.Is(err, imaging.InvalidFlags))

	err = w.Open(imaging.OpenRequest{Slave: true, Stereo: imaging.QuadBuffered, Width: 640, Height: 480})
	test.ExpectSuccess(t, curated.Is(err, imaging.InvalidSlave))
	test.ExpectEquality(t, curated.CategoryOf(err), curated.User)

	// the window is not open after a failure
	err = w.Open(imaging.OpenRequest{Width: 640, Height: 480})
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, w.Close())

	// planning errors leave the window closed
	dev := simgpu.NewDevice(gpu.Capabilities{})
	w = imaging.NewWindow(dev, newPreferences(t))
	err = w.Open(imaging.OpenRequest{Flags: imaging.NeedFastBackingStore, Width: 640, Height: 480})
	test.ExpectSuccess(t, curated.Is(err, imaging.NoFramebufferSupport))
	test.ExpectFailure(t, w.State().Enabled())
	err = w.Open(imaging.OpenRequest{Width: 640, Height: 480})
	test.ExpectSuccess(t, err)
}

func TestDualWindow(t *testing.T) {
	dev, master := newWindow(t)

	err := master.Open(imaging.OpenRequest{Stereo: imaging.DualWindow, Width: 640, Height: 480})
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, master.State().Flags.Has(imaging.NeedFastBackingStore))
	test.ExpectEquality(t, master.State().Count(), 2)
	test.ExpectEquality(t, dev.Live(), 4)

	slaveDev := simgpu.NewDevice(simgpu.FullCapabilities())
	slave := imaging.NewWindow(slaveDev, newPreferences(t))
	err = slave.Open(imaging.OpenRequest{
		Flags:  imaging.NeedImageProcessing,
		Stereo: imaging.DualWindow,
		Slave:  true,
		Width:  640,
		Height: 480,
	})
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, slave.State().Enabled())
	test.ExpectEquality(t, slave.State().Count(), 0)

	enabled, err := slave.Hooks.Enabled("IdentityBlitChain")
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, enabled)
	fns, err := slave.Hooks.Functions("IdentityBlitChain")
	test.ExpectSuccess(t, err)
	test.DemandEquality(t, len(fns), 1)
	test.ExpectEquality(t, fns[0].ID, imaging.BuiltinIdentityBlit)

	// the identity blit of the slave is a copy of the system framebuffer
	// onto itself
	slaveDev.ClearCalls()
	test.ExpectSuccess(t, slave.PreFlip(nil))
	draws := slaveDev.Draws()
	test.DemandEquality(t, len(draws), 1)
	test.ExpectEquality(t, draws[0].FBO, gpu.Handle(0))
	test.ExpectEquality(t, draws[0].Texture, gpu.Handle(0))

	test.ExpectSuccess(t, slave.Close())
	test.ExpectSuccess(t, master.Close())
}

func TestSyncLines(t *testing.T) {
	dev := simgpu.NewDevice(simgpu.FullCapabilities())
	prefs := newPreferences(t)
	test.DemandSuccess(t, prefs.StereoSyncLines.Set(true))
	test.DemandSuccess(t, prefs.SyncLineHeight.Set(2))

	w := imaging.NewWindow(dev, prefs)
	err := w.Open(imaging.OpenRequest{Stereo: imaging.QuadBuffered, Width: 400, Height: 300})
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, w.State().Enabled())

	for _, c := range []string{"LeftFinalizerBlitChain", "RightFinalizerBlitChain"} {
		info, ok, err := w.Hooks.Query(c, imaging.BuiltinStereoSyncLine)
		test.ExpectSuccess(t, err)
		test.DemandSuccess(t, ok, c)
		test.ExpectEquality(t, info.Config, "Height:2")
	}

	dev.ClearCalls()
	test.ExpectSuccess(t, w.PreFlip(nil))
	fills := dev.Fills()
	test.DemandEquality(t, len(fills), 4)
	test.ExpectEquality(t, fills[1].W, int32(100))
	test.ExpectEquality(t, fills[1].H, int32(2))
	test.ExpectEquality(t, fills[3].W, int32(300))

	// sync lines are not added to other stereo modes
	test.ExpectSuccess(t, w.Close())
	err = w.Open(imaging.OpenRequest{Stereo: imaging.AnaglyphRedGreen, Width: 400, Height: 300})
	test.DemandSuccess(t, err)
	n, err := w.Hooks.Len("LeftFinalizerBlitChain")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, n, 0)
}

func TestPreFlipCopyToSystem(t *testing.T) {
	dev, w := newWindow(t)

	err := w.Open(imaging.OpenRequest{
		Flags:  imaging.NeedFastBackingStore | imaging.NeedImageProcessing,
		Width:  640,
		Height: 480,
	})
	test.DemandSuccess(t, err)
	_, _ = w.Hooks.AddShader("StereoLeftCompositingBlit", "blur", hooks.Tail, 9, "", 0)
	_ = w.Hooks.Enable("StereoLeftCompositingBlit")

	var finished, prepared int
	_, _ = w.Hooks.AddNative("UserspaceBufferDrawingFinished", "finished", hooks.Tail, func(inv *hooks.Invocation) error {
		finished++
		return nil
	})
	_, _ = w.Hooks.AddNative("UserspaceBufferDrawingPrepare", "prepare", hooks.Tail, func(inv *hooks.Invocation) error {
		prepared++
		test.ExpectEquality(t, inv.UserData, any("frame"))
		return nil
	})
	_ = w.Hooks.Enable("UserspaceBufferDrawingFinished")
	_ = w.Hooks.Enable("UserspaceBufferDrawingPrepare")

	test.ExpectSuccess(t, w.PrepareDrawing("frame"))
	width, height := w.BindDrawBuffer(0)
	test.ExpectEquality(t, width, int32(640))
	test.ExpectEquality(t, height, int32(480))
	draw := w.State().Targets[0]
	test.ExpectEquality(t, dev.Bound(), draw.FBO)

	dev.ClearCalls()
	test.ExpectSuccess(t, w.PreFlip(nil))
	test.ExpectEquality(t, finished, 1)
	test.ExpectEquality(t, prepared, 1)

	processed := w.State().Target(w.State().Index(imaging.ProcessedDrawBuffer, 0))

	// the shader of the compositing chain followed by the copy of the
	// processed image to the system framebuffer
	draws := dev.Draws()
	test.DemandEquality(t, len(draws), 2)
	test.ExpectEquality(t, draws[0].Program, gpu.Handle(9))
	test.ExpectEquality(t, draws[0].FBO, processed.FBO)
	test.ExpectEquality(t, draws[0].Texture, draw.Color)
	test.ExpectEquality(t, draws[1].Program, gpu.Handle(0))
	test.ExpectEquality(t, draws[1].FBO, gpu.Handle(0))
	test.ExpectEquality(t, draws[1].Texture, processed.Color)
	test.ExpectEquality(t, draws[1].Width, int32(640))

	test.ExpectSuccess(t, w.Close())
}

func TestPreFlipOutputConversion(t *testing.T) {
	dev, w := newWindow(t)

	err := w.Open(imaging.OpenRequest{
		Flags:  imaging.NeedOutputConversion,
		Width:  640,
		Height: 480,
	})
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, w.State().Flags.Has(imaging.NeedFastBackingStore))

	_, _ = w.Hooks.AddShader("FinalOutputFormattingBlit", "gamma", hooks.Tail, 4, "", 8)
	_ = w.Hooks.Enable("FinalOutputFormattingBlit")

	dev.ClearCalls()
	test.ExpectSuccess(t, w.PreFlip(nil))

	// the output formatting chain writes directly to the system framebuffer
	draws := dev.Draws()
	test.DemandEquality(t, len(draws), 1)
	test.ExpectEquality(t, draws[0].Program, gpu.Handle(4))
	test.ExpectEquality(t, draws[0].LUT, gpu.Handle(8))
	test.ExpectEquality(t, draws[0].FBO, gpu.Handle(0))
	test.ExpectEquality(t, draws[0].Texture, w.State().Targets[0].Color)

	test.ExpectSuccess(t, w.Close())
}

func TestPreFlipDisabled(t *testing.T) {
	dev, w := newWindow(t)
	err := w.Open(imaging.OpenRequest{Width: 640, Height: 480})
	test.DemandSuccess(t, err)

	// compositing chains are not run when the pipeline is disabled
	called := false
	_, _ = w.Hooks.AddNative("PostCompositingBlit", "post", hooks.Tail, func(inv *hooks.Invocation) error {
		called = true
		return nil
	})
	_ = w.Hooks.Enable("PostCompositingBlit")

	dev.ClearCalls()
	test.ExpectSuccess(t, w.PreFlip(nil))
	test.ExpectFailure(t, called)
	test.ExpectEquality(t, len(dev.Draws()), 0)

	width, height := w.BindDrawBuffer(0)
	test.ExpectEquality(t, width, int32(640))
	test.ExpectEquality(t, height, int32(480))
	test.ExpectEquality(t, dev.Bound(), gpu.Handle(0))
}

// checks that no quad draw samples the framebuffer it is drawing into
func expectNoFeedback(t *testing.T, dev *simgpu.Device) {
	t.Helper()
	for i, d := range dev.Draws() {
		if d.FBO == 0 {
			continue // for loop
		}
		c := dev.ColorOf(d.FBO)
		test.ExpectInequality(t, d.Texture, c, i)
		test.ExpectInequality(t, d.Texture2, c, i)
	}
}

func TestPreFlipStereo(t *testing.T) {
	type views struct {
		draw      [2]*rendertarget.RenderTarget
		processed [2]*rendertarget.RenderTarget
		merge     *rendertarget.RenderTarget
		bounce    *rendertarget.RenderTarget
	}

	tests := []struct {
		name   string
		flags  imaging.Flags
		stereo imaging.StereoMode
		setup  func(w *imaging.Window)
		check  func(t *testing.T, dev *simgpu.Device, v views)
	}{
		{
			name:   "anaglyph with merge shader",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.AnaglyphRedGreen,
			setup: func(w *imaging.Window) {
				_, _ = w.Hooks.AddShader("StereoCompositingBlit", "merge", hooks.Tail, 5, "", 0)
				_ = w.Hooks.Enable("StereoCompositingBlit")
			},
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				// no merge buffer so the merge writes to the system framebuffer
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 1)
				test.ExpectEquality(t, draws[0].Program, gpu.Handle(5))
				test.ExpectEquality(t, draws[0].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Texture2, v.draw[1].Color)
			},
		},
		{
			name:   "anaglyph with output conversion",
			flags:  imaging.NeedOutputConversion,
			stereo: imaging.AnaglyphRedGreen,
			setup: func(w *imaging.Window) {
				_, _ = w.Hooks.AddShader("StereoCompositingBlit", "merge", hooks.Tail, 5, "", 0)
				_, _ = w.Hooks.AddShader("FinalOutputFormattingBlit", "gamma", hooks.Tail, 4, "", 8)
				_ = w.Hooks.Enable("StereoCompositingBlit")
				_ = w.Hooks.Enable("FinalOutputFormattingBlit")
			},
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].FBO, v.merge.FBO)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Texture2, v.draw[1].Color)
				test.ExpectEquality(t, draws[1].Program, gpu.Handle(4))
				test.ExpectEquality(t, draws[1].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[1].Texture, v.merge.Color)
			},
		},
		{
			name:   "anaglyph with image processing",
			flags:  imaging.NeedImageProcessing,
			stereo: imaging.AnaglyphRedGreen,
			setup: func(w *imaging.Window) {
				_, _ = w.Hooks.AddShader("StereoLeftCompositingBlit", "blur", hooks.Tail, 9, "", 0)
				_, _ = w.Hooks.AddShader("StereoCompositingBlit", "merge", hooks.Tail, 5, "", 0)
				_, _ = w.Hooks.AddShader("PostCompositingBlit", "sharpen", hooks.Tail, 6, "", 0)
				_ = w.Hooks.Enable("StereoLeftCompositingBlit")
				_ = w.Hooks.Enable("StereoCompositingBlit")
				_ = w.Hooks.Enable("PostCompositingBlit")
			},
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 4)

				// left view is processed into the first processed buffer
				test.ExpectEquality(t, draws[0].Program, gpu.Handle(9))
				test.ExpectEquality(t, draws[0].FBO, v.processed[0].FBO)

				// the merge can not write to the processed left view
				test.ExpectEquality(t, draws[1].Program, gpu.Handle(5))
				test.ExpectEquality(t, draws[1].FBO, v.bounce.FBO)
				test.ExpectEquality(t, draws[1].Texture, v.processed[0].Color)
				test.ExpectEquality(t, draws[1].Texture2, v.draw[1].Color)

				// nor can the post compositing chain write to the merged image
				test.ExpectEquality(t, draws[2].Program, gpu.Handle(6))
				test.ExpectEquality(t, draws[2].FBO, v.processed[0].FBO)
				test.ExpectEquality(t, draws[2].Texture, v.bounce.Color)

				test.ExpectEquality(t, draws[3].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[3].Texture, v.processed[0].Color)
			},
		},
		{
			name:   "anaglyph default merge",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.AnaglyphGreenRed,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				fills := dev.Fills()
				test.DemandEquality(t, len(fills), 1)
				test.ExpectEquality(t, fills[0].Color, gpu.Color{A: 1})

				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Mask, [4]bool{false, true, false, false})
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
				test.ExpectEquality(t, draws[1].Mask, [4]bool{true, false, false, false})

				calls := dev.Calls()
				test.ExpectEquality(t, calls[len(calls)-1], "colour mask true true true true")
			},
		},
		{
			name:   "free fusion default merge",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.FreeFusion,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				test.ExpectEquality(t, v.draw[0].Width, int32(400))

				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Config, gpu.BlitConfig{OffsetX: -200, ScaleX: 0.5, ScaleY: 1})
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
				test.ExpectEquality(t, draws[1].Config, gpu.BlitConfig{OffsetX: 200, ScaleX: 0.5, ScaleY: 1})
			},
		},
		{
			name:   "free cross fusion default merge",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.FreeCrossFusion,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Config.OffsetX, float32(200))
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
				test.ExpectEquality(t, draws[1].Config.OffsetX, float32(-200))
			},
		},
		{
			name:   "compressed default merge",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.CompressedTopLeftBottomRight,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[0].Config, gpu.BlitConfig{OffsetY: 150, ScaleX: 1, ScaleY: 0.5})
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
				test.ExpectEquality(t, draws[1].Config, gpu.BlitConfig{OffsetY: -150, ScaleX: 1, ScaleY: 0.5})
			},
		},
		{
			name:   "quad buffered",
			flags:  imaging.NeedFastBackingStore,
			stereo: imaging.QuadBuffered,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				// each view is copied to its own back buffer
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[0].Buffer, gpu.BackLeft)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[1].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[1].Buffer, gpu.BackRight)
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
				test.ExpectEquality(t, dev.Buffer(), gpu.BackBuffer)
			},
		},
		{
			name:   "quad buffered with output conversion",
			flags:  imaging.NeedOutputConversion,
			stereo: imaging.QuadBuffered,
			setup: func(w *imaging.Window) {
				_, _ = w.Hooks.AddShader("FinalOutputFormattingBlit", "gamma", hooks.Tail, 4, "", 8)
				_ = w.Hooks.Enable("FinalOutputFormattingBlit")
			},
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				test.ExpectEquality(t, v.merge, (*rendertarget.RenderTarget)(nil))

				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 2)
				test.ExpectEquality(t, draws[0].Program, gpu.Handle(4))
				test.ExpectEquality(t, draws[0].Buffer, gpu.BackLeft)
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
				test.ExpectEquality(t, draws[1].Program, gpu.Handle(4))
				test.ExpectEquality(t, draws[1].Buffer, gpu.BackRight)
				test.ExpectEquality(t, draws[1].Texture, v.draw[1].Color)
			},
		},
		{
			name:   "dual window",
			stereo: imaging.DualWindow,
			check: func(t *testing.T, dev *simgpu.Device, v views) {
				// the master window displays the left view
				draws := dev.Draws()
				test.DemandEquality(t, len(draws), 1)
				test.ExpectEquality(t, draws[0].FBO, gpu.Handle(0))
				test.ExpectEquality(t, draws[0].Texture, v.draw[0].Color)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev, w := newWindow(t)
			err := w.Open(imaging.OpenRequest{Flags: tc.flags, Stereo: tc.stereo, Width: 800, Height: 600})
			test.DemandSuccess(t, err)
			if tc.setup != nil {
				tc.setup(w)
			}

			s := w.State()
			var v views
			for i := range 2 {
				v.draw[i] = s.Target(s.Index(imaging.DrawBuffer, i))
				v.processed[i] = s.Target(s.Index(imaging.ProcessedDrawBuffer, i))
			}
			if b, ok := s.Binding(imaging.PreConversion, 0).(imaging.Allocated); ok {
				v.merge = s.Target(b.Index)
			}
			v.bounce = s.Target(s.Index(imaging.ProcessedDrawBuffer, 2))
			test.DemandSuccess(t, v.draw[1] != nil)

			dev.ClearCalls()
			test.DemandSuccess(t, w.PreFlip(nil))
			tc.check(t, dev, v)
			expectNoFeedback(t, dev)

			test.ExpectSuccess(t, w.Close())
			test.ExpectEquality(t, dev.Live(), 0)
		})
	}
}

func TestBindDrawBufferStereoDisabled(t *testing.T) {
	dev, w := newWindow(t)
	err := w.Open(imaging.OpenRequest{Stereo: imaging.QuadBuffered, Width: 640, Height: 480})
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, w.State().Enabled())

	// the views are drawn to the back buffers of the system framebuffer
	_, _ = w.BindDrawBuffer(0)
	test.ExpectEquality(t, dev.Buffer(), gpu.BackLeft)
	_, _ = w.BindDrawBuffer(1)
	test.ExpectEquality(t, dev.Buffer(), gpu.BackRight)
	test.ExpectEquality(t, dev.Bound(), gpu.Handle(0))

	test.ExpectSuccess(t, w.PreFlip(nil))
	test.ExpectEquality(t, dev.Buffer(), gpu.BackBuffer)
	test.ExpectSuccess(t, w.Close())

	// anaglyph views are drawn with the colour components of the view
	err = w.Open(imaging.OpenRequest{Stereo: imaging.AnaglyphRedBlue, Width: 640, Height: 480})
	test.DemandSuccess(t, err)
	test.ExpectFailure(t, w.State().Enabled())

	quad := func() simgpu.Draw {
		dev.DrawTexturedQuad(640, 480, gpu.DefaultBlitConfig)
		d := dev.Draws()
		return d[len(d)-1]
	}

	_, _ = w.BindDrawBuffer(0)
	test.ExpectEquality(t, quad().Mask, [4]bool{true, false, false, true})
	_, _ = w.BindDrawBuffer(1)
	test.ExpectEquality(t, quad().Mask, [4]bool{false, false, true, true})
	test.ExpectSuccess(t, w.PreFlip(nil))
	test.ExpectEquality(t, quad().Mask, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, w.Close())
}

func TestExecuteHook(t *testing.T) {
	_, w := newWindow(t)

	res, err := w.ExecuteHook("NoSuchHook", nil, nil, 0, 1)
	test.ExpectSuccess(t, curated.Is(err, hooks.UnknownHook))
	test.ExpectEquality(t, res, imaging.ExecuteResult{Source: 0, Dest: 1})

	var got int
	_, _ = w.Hooks.AddNative("IdentityBlitChain", "n", hooks.Tail, func(inv *hooks.Invocation) error {
		got = inv.UserData.(int)
		return nil
	})
	_ = w.Hooks.Enable("IdentityBlitChain")
	res, err = w.ExecuteHook("IdentityBlitChain", 7, nil, imaging.SystemFramebuffer, imaging.SystemFramebuffer)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res.Stages, 1)
	test.ExpectEquality(t, got, 7)
}

func TestOwnerWarning(t *testing.T) {
	_, w := newWindow(t)

	logger.Clear()
	done := make(chan bool)
	go func() {
		_, _ = w.ExecuteHook("IdentityBlitChain", nil, nil, imaging.SystemFramebuffer, imaging.SystemFramebuffer)
		done <- true
	}()
	<-done

	s := &strings.Builder{}
	logger.Write(s)
	test.ExpectSuccess(t, strings.Contains(s.String(), "imaging: execute hook: called from goroutine"))

	// no warning from the owning goroutine
	logger.Clear()
	_, _ = w.ExecuteHook("IdentityBlitChain", nil, nil, imaging.SystemFramebuffer, imaging.SystemFramebuffer)
	s.Reset()
	logger.Write(s)
	test.ExpectEquality(t, s.String(), "")
}

func TestDumpGraph(t *testing.T) {
	_, w := newWindow(t)
	err := w.Open(imaging.OpenRequest{Flags: imaging.NeedFastBackingStore, Width: 64, Height: 64})
	test.DemandSuccess(t, err)

	s := &strings.Builder{}
	w.DumpGraph(s)
	test.ExpectSuccess(t, strings.Contains(s.String(), "digraph"))
	test.ExpectSuccess(t, w.Close())
}

func TestPreferences(t *testing.T) {
	pth := filepath.Join(t.TempDir(), imaging.PrefsFile)
	p, err := imaging.NewPreferencesFile(pth)
	test.DemandSuccess(t, err)

	// default verbosity allows warnings but not debugging output
	test.ExpectEquality(t, p.Verbosity.Get().(int), 3)
	test.ExpectSuccess(t, p.VerbosityAbove(1).AllowLogging())
	test.ExpectFailure(t, p.VerbosityAbove(4).AllowLogging())

	test.ExpectSuccess(t, p.Verbosity.Set(5))
	test.ExpectSuccess(t, p.VerbosityAbove(4).AllowLogging())

	test.ExpectSuccess(t, p.Verbosity.Set(1))
	test.ExpectFailure(t, p.VerbosityAbove(1).AllowLogging())

	test.ExpectSuccess(t, p.Enable3D.Set(true))
	test.ExpectSuccess(t, p.SyncLineHeight.Set(4))
	test.ExpectSuccess(t, p.Save())

	q, err := imaging.NewPreferencesFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q.Verbosity.Get().(int), 1)
	test.ExpectEquality(t, q.Enable3D.Get().(bool), true)
	test.ExpectEquality(t, q.SyncLineHeight.Get().(int), 4)
	test.ExpectEquality(t, q.StereoSyncLines.Get().(bool), false)

}

func TestPreferencesPerWindow(t *testing.T) {
	// a device that can not attach a separate stencil buffer. every window
	// with 3D enabled logs a stencil warning if its preferences allow it
	newDevice := func() *simgpu.Device {
		caps := simgpu.FullCapabilities()
		caps.PackedDepthStencil = false
		dev := simgpu.NewDevice(caps)
		dev.RejectSeparateStencil = true
		return dev
	}

	quiet := newPreferences(t)
	test.DemandSuccess(t, quiet.Verbosity.Set(0))
	test.DemandSuccess(t, quiet.Enable3D.Set(true))
	verbose := newPreferences(t)
	test.DemandSuccess(t, verbose.Verbosity.Set(5))
	test.DemandSuccess(t, verbose.Enable3D.Set(true))

	w := &strings.Builder{}
	logger.Clear()
	logger.SetEcho(w, false)
	defer logger.SetEcho(nil, false)

	// the preferences of the most recently created window do not change the
	// logging of another window
	quietWnd := imaging.NewWindow(newDevice(), quiet)
	verboseWnd := imaging.NewWindow(newDevice(), verbose)

	req := imaging.OpenRequest{Flags: imaging.NeedFastBackingStore, Width: 64, Height: 64}
	test.DemandSuccess(t, quietWnd.Open(req))
	test.ExpectFailure(t, strings.Contains(w.String(), "stencil buffers not supported"))

	test.DemandSuccess(t, verboseWnd.Open(req))
	test.ExpectSuccess(t, strings.Contains(w.String(), "stencil buffers not supported"))
	test.ExpectSuccess(t, strings.Contains(w.String(), "framebuffer complete"))

	test.ExpectSuccess(t, quietWnd.Close())
	test.ExpectSuccess(t, verboseWnd.Close())
}
