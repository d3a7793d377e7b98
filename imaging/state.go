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
	"strings"

	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/rendertarget"
)

// FBOIndex is an index into the render target table of a window.
type FBOIndex int

// SystemFramebuffer is the FBOIndex of the system backbuffer. It has no
// entry in the render target table.
const SystemFramebuffer FBOIndex = -1

func (idx FBOIndex) String() string {
	if idx == SystemFramebuffer {
		return "system"
	}
	return fmt.Sprintf("%d", int(idx))
}

// MaxRenderTargets is the capacity of the render target table.
const MaxRenderTargets = 8

// Role of a render target in the pipeline.
type Role int

// List of valid Role values. A role can only be an alias of a role earlier
// in the list.
const (
	DrawBuffer Role = iota
	ProcessedDrawBuffer
	PreConversion
	Finalized

	numRoles
)

// the most number of slots any role has
const maxSlots = 3

func (r Role) String() string {
	switch r {
	case DrawBuffer:
		return "draw"
	case ProcessedDrawBuffer:
		return "processed"
	case PreConversion:
		return "preconversion"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("role %d", int(r))
}

// Slots returns the number of slots for the role. Slot 0 is the left (or
// mono) view and slot 1 is the right view. The third slot of the processed
// and pre-conversion roles is a bounce buffer.
func (r Role) Slots() int {
	switch r {
	case DrawBuffer, Finalized:
		return 2
	case ProcessedDrawBuffer, PreConversion:
		return 3
	}
	return 0
}

// Binding of a role slot to a render target. The only implementations are
// Allocated, AliasOf and System.
type Binding interface {
	fmt.Stringer
	binding()
}

// Allocated is a role slot with its own entry in the render target table.
// More than one slot can be allocated the same entry.
type Allocated struct {
	Index FBOIndex
}

func (b Allocated) String() string {
	return fmt.Sprintf("fbo %d", b.Index)
}

func (Allocated) binding() {}

// AliasOf is a role slot that passes through the binding of a slot of an
// earlier role.
type AliasOf struct {
	Role Role
	Slot int
}

func (b AliasOf) String() string {
	return fmt.Sprintf("alias of %s[%d]", b.Role, b.Slot)
}

func (AliasOf) binding() {}

// System is a role slot bound to the system framebuffer.
type System struct{}

func (System) String() string {
	return "system"
}

func (System) binding() {}

// State of the pipeline for a window. The zero value is not usable. Use
// NewState() for the all-off state.
type State struct {
	// the feature word as configured. this may not be the same as the
	// requested flags
	Flags Flags

	// HalfWidthWindow and HalfHeightWindow bits
	Special Flags

	Stereo StereoMode

	// the render target table
	Targets []*rendertarget.RenderTarget

	bindings [numRoles][maxSlots]Binding
}

// NewState returns the all-off state: no render targets and every role bound
// to the system framebuffer.
func NewState() *State {
	s := &State{}
	s.resetBindings()
	return s
}

func (s *State) resetBindings() {
	for r := range s.bindings {
		for i := range s.bindings[r] {
			s.bindings[r][i] = System{}
		}
	}
}

// Enabled returns true if the pipeline has been configured.
func (s *State) Enabled() bool {
	return s.Flags > 0
}

// Count returns the number of entries in the render target table.
func (s *State) Count() int {
	return len(s.Targets)
}

// Binding returns the binding for a role slot. Invalid role slots are bound
// to the system framebuffer.
func (s *State) Binding(role Role, slot int) Binding {
	if role < 0 || role >= numRoles || slot < 0 || slot >= role.Slots() {
		return System{}
	}
	if b := s.bindings[role][slot]; b != nil {
		return b
	}
	return System{}
}

// Index resolves the binding of a role slot to an FBOIndex. The result is
// always SystemFramebuffer or a valid index into the render target table.
func (s *State) Index(role Role, slot int) FBOIndex {
	for {
		switch b := s.Binding(role, slot).(type) {
		case Allocated:
			if b.Index < 0 || int(b.Index) >= len(s.Targets) {
				return SystemFramebuffer
			}
			return b.Index
		case AliasOf:
			if b.Role >= role {
				return SystemFramebuffer
			}
			role, slot = b.Role, b.Slot
		default:
			return SystemFramebuffer
		}
	}
}

// Target returns the render target for the index. Returns nil for
// SystemFramebuffer and for indices outside the table.
func (s *State) Target(idx FBOIndex) *rendertarget.RenderTarget {
	if idx < 0 || int(idx) >= len(s.Targets) {
		return nil
	}
	return s.Targets[idx]
}

// Shutdown destroys every render target and returns the state to the all-off
// state. It is safe to call Shutdown more than once.
func (s *State) Shutdown(dev gpu.Device) {
	for i, rt := range s.Targets {
		rendertarget.Destroy(dev, rt)
		s.Targets[i] = nil
	}
	s.Targets = s.Targets[:0]
	s.Flags = 0
	s.Special = 0
	s.resetBindings()
}

func (s *State) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "flags: %s\n", s.Flags)
	if s.Special != 0 {
		fmt.Fprintf(&b, "special: %s\n", s.Special)
	}
	fmt.Fprintf(&b, "stereo: %s\n", s.Stereo)
	fmt.Fprintf(&b, "render targets: %d\n", s.Count())
	for i, rt := range s.Targets {
		fmt.Fprintf(&b, "  %d: %s\n", i, rt)
	}
	for r := Role(0); r < numRoles; r++ {
		for i := 0; i < r.Slots(); i++ {
			fmt.Fprintf(&b, "%s[%d]: %s -> %s\n", r, i, s.Binding(r, i), s.Index(r, i))
		}
	}
	return b.String()
}
