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
	"os/signal"
	"strings"

	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/gpu/simgpu"
	"github.com/stimkit/imagingpipe/hooks"
	"github.com/stimkit/imagingpipe/imaging"
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/modalflag"
	"github.com/stimkit/imagingpipe/paths"
	"github.com/stimkit/imagingpipe/prefs"
	"github.com/stimkit/imagingpipe/statsview"
	"github.com/stimkit/imagingpipe/version"
)

type stateReq = string

const (
	// main thread should end as soon as possible.
	//
	// takes optional int argument, indicating the status code.
	reqQuit stateReq = "QUIT"
)

type stateRequest struct {
	req  stateReq
	args any
}

// WindowCreator facilitates the creation, servicing and destruction of
// windows that need to be run in the main thread.
//
// There is no Create() function. Instead the creator is a channel which
// accepts a function that returns an instance of WindowCreator. The function
// is run on the main thread.
type WindowCreator interface {
	// cleanup resources used by the window
	Destroy(io.Writer)

	// Service() should not pause or loop longer than necessary. It MUST ONLY
	// be called as part of a larger loop from the main thread. Every graphics
	// operation happens in this function
	Service()
}

// communication between the main() function and the launch() function. this is
// required because SDL and OpenGL require window event handling and all
// graphics operations to occur on the main thread.
type mainSync struct {
	state   chan stateRequest
	creator chan func() (WindowCreator, error)

	// the result of creator will be returned on either of these two channels.
	creation      chan WindowCreator
	creationError chan error
}

// #mainthread
func main() {
	sync := &mainSync{
		state:         make(chan stateRequest),
		creator:       make(chan func() (WindowCreator, error)),
		creation:      make(chan WindowCreator),
		creationError: make(chan error),
	}

	// the value to use with os.Exit(). can be changed with reqQuit
	// stateRequest
	exitVal := 0

	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	// launch program as a go routine. further communication is through
	// the mainSync instance
	go launch(sync)

	// loop until done is true. every iteration of the loop we listen for:
	//
	//  1. interrupt signals
	//  2. new window creation functions
	//  3. state requests
	//  4. anything in the Service() function of the most recently created
	//     window
	done := false
	var wnd WindowCreator
	for !done {
		select {
		case <-intChan:
			fmt.Println("\r")
			done = true
			if wnd != nil {
				wnd.Destroy(os.Stderr)
			}

		case creator := <-sync.creator:
			var err error

			if wnd != nil {
				wnd.Destroy(os.Stderr)
			}

			wnd, err = creator()
			if err != nil {
				sync.creationError <- err

				// nil of an interface type is not the same as a nil
				// returned by creator()
				wnd = nil
			} else {
				sync.creation <- wnd
			}

		case state := <-sync.state:
			switch state.req {
			case reqQuit:
				done = true
				if wnd != nil {
					wnd.Destroy(os.Stderr)
				}

				if state.args != nil {
					if v, ok := state.args.(int); ok {
						exitVal = v
					} else {
						panic(fmt.Sprintf("cannot convert %s arguments into int", reqQuit))
					}
				}
			}

		default:
			if wnd != nil {
				wnd.Service()
			}
		}
	}

	os.Exit(exitVal)
}

// launch is called from main() as a goroutine. uses mainSync instance to
// indicate window creation and to quit.
func launch(sync *mainSync) {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("PLAN", "HOOKS", "RUN", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		sync.state <- stateRequest{req: reqQuit}
		return

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		sync.state <- stateRequest{req: reqQuit, args: 10}
		return
	}

	switch md.Mode() {
	case "PLAN":
		err = plan(md, os.Stdout)

	case "HOOKS":
		err = listHooks(md, os.Stdout)

	case "RUN":
		err = run(md, sync)

	case "VERSION":
		v, r, _ := version.Version()
		fmt.Printf("%s %s (%s)\n", version.ApplicationName, v, r)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		sync.state <- stateRequest{req: reqQuit, args: 20}
		return
	}

	sync.state <- stateRequest{req: reqQuit}
}

// flags common to the PLAN and RUN modes
type windowArgs struct {
	flags  *string
	stereo *int
	width  *int
	height *int
	prefs  *string
	log    *bool
}

func addWindowArgs(md *modalflag.Modes) windowArgs {
	return windowArgs{
		flags:  md.AddString("flags", "none", "imaging flags: integer or names separated by '|' (see HOOKS mode)"),
		stereo: md.AddInt("stereo", 0, "stereo mode: 0 (mono) to 10 (dual window)"),
		width:  md.AddInt("width", 800, "width of window"),
		height: md.AddInt("height", 600, "height of window"),
		prefs:  md.AddString("prefs", "", "preferences for the session. eg. \"imaging.enable3d::true; imaging.verbosity::5\""),
		log:    md.AddBool("log", false, "echo log to stdout"),
	}
}

// applies the prefs and log arguments and returns the window request
func (a windowArgs) request() (imaging.OpenRequest, *imaging.Preferences, error) {
	if *a.log {
		logger.SetEcho(os.Stdout, true)
	}

	if *a.prefs != "" {
		prefs.PushCommandLineStack(*a.prefs)
	}

	pref, err := imaging.NewPreferences()
	if *a.prefs != "" {
		if unused := prefs.PopCommandLineStack(); unused != "" {
			logger.Logf(logger.Allow, "prefs", "unused preferences: %s", unused)
		}
	}
	if err != nil {
		return imaging.OpenRequest{}, nil, err
	}

	flags, err := imaging.ParseFlags(*a.flags)
	if err != nil {
		return imaging.OpenRequest{}, nil, err
	}

	return imaging.OpenRequest{
		Flags:  flags,
		Stereo: imaging.StereoMode(*a.stereo),
		Width:  int32(*a.width),
		Height: int32(*a.height),
	}, pref, nil
}

func plan(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()
	md.AdditionalHelp("Plans the imaging pipeline for a window with a simulated graphics device.")

	args := addWindowArgs(md)
	noFBO := md.AddBool("nofbo", false, "simulate hardware without framebuffer objects")
	noFloat := md.AddBool("nofloat", false, "simulate hardware without floating point textures")
	noDepth := md.AddBool("nodepth", false, "simulate hardware without depth textures")
	noPacked := md.AddBool("nopacked", false, "simulate hardware without packed depth/stencil textures")
	noStencil := md.AddBool("nostencil", false, "simulate hardware that rejects separate stencil buffers")
	asYAML := md.AddBool("yaml", false, "print the pipeline state as a YAML document")
	dump := md.AddBool("dump", false, "dump the hook chains after opening the window")
	graph := md.AddBool("graph", false, "write a graphviz description of the pipeline. the filename can be given as an argument")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	req, pref, err := args.request()
	if err != nil {
		return err
	}

	dev := simgpu.NewDevice(gpu.Capabilities{
		Framebuffers:       !*noFBO,
		FloatTextures:      !*noFloat,
		DepthTextures:      !*noDepth,
		PackedDepthStencil: !*noPacked,
	})
	dev.RejectSeparateStencil = *noStencil
	fmt.Fprintf(output, "simulated device: %s\n", dev.Capabilities())

	wnd := imaging.NewWindow(dev, pref)
	err = wnd.Open(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = wnd.Close()
	}()

	if *asYAML {
		if err := wnd.State().WriteYAML(output); err != nil {
			return err
		}
	} else {
		io.WriteString(output, wnd.State().String())
	}

	if *dump {
		io.WriteString(output, "\n")
		wnd.Hooks.DumpAll(output)
	}

	if *graph {
		fn := md.GetArg(0)
		if fn == "" {
			fn = paths.UniqueFilename("pipeline", strings.ReplaceAll(req.Stereo.String(), " ", "_"), "dot")
		}
		f, err := os.Create(fn)
		if err != nil {
			return err
		}
		defer f.Close()
		wnd.DumpGraph(f)
		fmt.Fprintf(output, "pipeline graph written to %s\n", fn)
	}

	return nil
}

func listHooks(md *modalflag.Modes, output io.Writer) error {
	md.NewMode()
	md.AdditionalHelp("Lists the hook chains, imaging flags and built-in hook functions.")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	hooks.ListAll(output)

	io.WriteString(output, "The following imaging flags are available:\n")
	for _, f := range imaging.FlagSynopsis() {
		fmt.Fprintf(output, "- %s (%d) : %s\n", f.Name, int(f.Flag), f.Synopsis)
	}

	io.WriteString(output, "\nThe following builtin functions are available:\n")
	io.WriteString(output, fmt.Sprintf("- %s\n", strings.Join(imaging.Builtins(), "\n- ")))

	return nil
}

func run(md *modalflag.Modes, sync *mainSync) error {
	md.NewMode()
	md.AdditionalHelp("Opens a window and runs the imaging pipeline for a number of frames.")

	args := addWindowArgs(md)
	frames := md.AddInt("frames", 300, "number of frames to run for")
	vsync := md.AddBool("vsync", true, "synchronise buffer swaps with the display")
	expr := md.AddString("script", "", "script expression to run in the PostCompositingBlit chain every frame")
	invert := md.AddBool("invert", false, "add an inverting shader to the compositing chains of both views")
	merge := md.AddBool("merge", false, "merge the views of a stereo mode with a red/cyan anaglyph shader")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.Address))

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	req, pref, err := args.request()
	if err != nil {
		return err
	}

	if *stats {
		statsview.Launch(os.Stdout)
	}

	done := make(chan error, 1)

	sync.creator <- func() (WindowCreator, error) {
		return newRunner(req, pref, *frames, *vsync, *expr, *invert, *merge, done)
	}

	select {
	case <-sync.creation:
	case err := <-sync.creationError:
		return err
	}

	return <-done
}
