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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/imaging"
	"github.com/stimkit/imagingpipe/modalflag"
	"github.com/stimkit/imagingpipe/test"
)

// returns a Modes instance that has parsed the top level of the arguments
func parseTopLevel(t *testing.T, args ...string) *modalflag.Modes {
	t.Helper()

	// the preferences file is created in the user's config directory
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	md := &modalflag.Modes{Output: &strings.Builder{}}
	md.NewArgs(args)
	md.NewMode()
	md.AddSubModes("PLAN", "HOOKS", "RUN", "VERSION")
	p, err := md.Parse()
	test.DemandSuccess(t, err)
	test.DemandEquality(t, p, modalflag.ParseContinue)
	return md
}

func TestPlanMode(t *testing.T) {
	md := parseTopLevel(t, "PLAN", "-flags", "FastBackingStore", "-width", "64", "-height", "64")
	test.ExpectEquality(t, md.Mode(), "PLAN")

	out := &strings.Builder{}
	test.DemandSuccess(t, plan(md, out))

	s := out.String()
	test.ExpectSuccess(t, strings.Contains(s, "simulated device: fbo=true float=true depth=true packed=true"))
	test.ExpectSuccess(t, strings.Contains(s, "flags: FastBackingStore\n"))
	test.ExpectSuccess(t, strings.Contains(s, "render targets: 1\n"))
}

func TestPlanModeYAML(t *testing.T) {
	md := parseTopLevel(t, "PLAN", "-flags", "FastBackingStore|ImageProcessing", "-yaml")

	out := &strings.Builder{}
	test.DemandSuccess(t, plan(md, out))

	s := out.String()
	test.ExpectSuccess(t, strings.Contains(s, "enabled: true\n"))
	test.ExpectSuccess(t, strings.Contains(s, "flags: FastBackingStore|ImageProcessing\n"))
}

func TestPlanModeDump(t *testing.T) {
	md := parseTopLevel(t, "PLAN", "-stereo", "1", "-dump", "-prefs", "imaging.stereosynclines::true")

	out := &strings.Builder{}
	test.DemandSuccess(t, plan(md, out))

	// the sync line builtin is installed in both finalizer chains
	s := out.String()
	test.ExpectEquality(t, strings.Count(s, "Id='Builtin:RenderStereoSyncLine'"), 2)
}

func TestPlanModeGraph(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "pipeline.dot")
	md := parseTopLevel(t, "PLAN", "-flags", "ImageProcessing", "-graph", fn)

	out := &strings.Builder{}
	test.DemandSuccess(t, plan(md, out))

	data, err := os.ReadFile(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.Contains(string(data), "digraph"))
}

func TestPlanModeNoFramebuffers(t *testing.T) {
	md := parseTopLevel(t, "PLAN", "-flags", "ImageProcessing", "-nofbo")

	err := plan(md, &strings.Builder{})
	test.ExpectSuccess(t, curated.Is(err, imaging.NoFramebufferSupport))
	test.ExpectEquality(t, curated.CategoryOf(err), curated.Capability)

	// without the pipeline no framebuffer objects are required
	md = parseTopLevel(t, "PLAN", "-nofbo")
	test.ExpectSuccess(t, plan(md, &strings.Builder{}))
}

func TestPlanModeBadFlags(t *testing.T) {
	md := parseTopLevel(t, "PLAN", "-flags", "FastBackingStore|Sparkle")
	err := plan(md, &strings.Builder{})
	test.ExpectSuccess(t, curated.Is(err, imaging.UnknownFlag))

	md = parseTopLevel(t, "PLAN", "-stereo", "11")
	err = plan(md, &strings.Builder{})
	test.ExpectSuccess(t, curated.Is(err, imaging.InvalidStereoMode))
}

func TestHooksMode(t *testing.T) {
	md := parseTopLevel(t, "HOOKS")
	test.ExpectEquality(t, md.Mode(), "HOOKS")

	out := &strings.Builder{}
	test.DemandSuccess(t, listHooks(md, out))

	s := out.String()
	test.ExpectSuccess(t, strings.Contains(s, "- PostCompositingBlit : "))
	test.ExpectSuccess(t, strings.Contains(s, "- Builtin:FlipFBOs\n"))
	test.ExpectSuccess(t, strings.Contains(s, "FastBackingStore (1)"))
}
