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
	"sort"
	"strconv"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/hooks"
)

// UnknownBuiltin is the error pattern for a built-in hook function that does
// not exist.
const UnknownBuiltin = "imaging: unknown builtin function (%s)"

// Names of the built-in hook functions.
const (
	BuiltinIdentityBlit   = "Builtin:IdentityBlit"
	BuiltinStereoSyncLine = "Builtin:RenderStereoSyncLine"
	BuiltinFlipFBOs       = "Builtin:FlipFBOs"
)

// a built-in hook function returns true if the source and destination
// should be swapped
type builtin func(d *Dispatcher, inv *hooks.Invocation, config string, blitter BlitterFunc) (bool, error)

var builtins = map[string]builtin{
	BuiltinIdentityBlit:   identityBlit,
	BuiltinStereoSyncLine: stereoSyncLine,
	BuiltinFlipFBOs:       flipFBOs,
}

// Builtins returns the names of the built-in hook functions in alphabetical
// order.
func Builtins() []string {
	n := make([]string, 0, len(builtins))
	for k := range builtins {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// the configuration is a blitter configuration
func identityBlit(d *Dispatcher, inv *hooks.Invocation, config string, blitter BlitterFunc) (bool, error) {
	if err := d.blit(0, 0, config, inv, blitter); err != nil {
		return false, err
	}
	return true, nil
}

func flipFBOs(_ *Dispatcher, _ *hooks.Invocation, _ string, _ BlitterFunc) (bool, error) {
	return true, nil
}

// colours of the sync line
var (
	syncLineBlue  = gpu.Color{B: 1.0, A: 1.0}
	syncLineBlack = gpu.Color{A: 1.0}
)

// the sync line is drawn along the bottom rows of the destination. the line
// is black with a blue segment that covers a quarter of the width for the
// left view and three quarters for the right view. the configuration can set
// the number of rows with "Height:n"
func stereoSyncLine(d *Dispatcher, inv *hooks.Invocation, config string, _ BlitterFunc) (bool, error) {
	vals, err := parseBuiltinConfig(config, "Height")
	if err != nil {
		return false, err
	}

	rows := int32(1)
	if v, ok := vals["Height"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return false, curated.Userf(InvalidBuiltinConfig, config, err)
		}
		if n <= 0 {
			return false, curated.Userf(InvalidBuiltinConfig, config, "height must be positive")
		}
		rows = int32(n)
	}

	frac := float32(0.25)
	if inv.Point == hooks.RightFinalizerBlitChain {
		frac = 0.75
	}

	w, h := d.bind(inv.DestTarget)
	rows = min(rows, h)

	d.dev.FillRect(0, 0, w, rows, syncLineBlack)
	d.dev.FillRect(0, 0, int32(float32(w)*frac), rows, syncLineBlue)

	return false, nil
}
