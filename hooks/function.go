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

package hooks

import (
	"fmt"

	"github.com/stimkit/imagingpipe/gpu"
	"github.com/stimkit/imagingpipe/rendertarget"
)

// Kind of hook function.
type Kind int

// List of valid Kind values.
const (
	ShaderKind Kind = iota
	NativeKind
	ScriptKind
	BuiltinKind

	// a function without a payload
	NoKind Kind = -1
)

func (k Kind) String() string {
	switch k {
	case ShaderKind:
		return "shader"
	case NativeKind:
		return "native"
	case ScriptKind:
		return "script"
	case BuiltinKind:
		return "builtin"
	case NoKind:
		return "none"
	}
	return "unknown"
}

// Payload is the kind specific part of a hook function. The only
// implementations are Shader, Native, Script and Builtin.
type Payload interface {
	Kind() Kind
	sealed()
}

// Shader is the payload for a shader hook function.
type Shader struct {
	Program    gpu.Handle
	LUTTexture gpu.Handle

	// blitter configuration. see imaging.ParseBlitterConfig()
	Blitter string
}

// Kind implements the Payload interface.
func (Shader) Kind() Kind { return ShaderKind }
func (Shader) sealed()    {}

// Invocation is passed to native and script hook functions.
type Invocation struct {
	Point Point
	Slot  int
	ID    string

	// opaque value provided by the caller of the chain
	UserData any

	// indices into the render target table of the window. -1 is the system
	// framebuffer, in which case the corresponding render target is nil
	Source       int
	Dest         int
	SourceTarget *rendertarget.RenderTarget
	DestTarget   *rendertarget.RenderTarget

	// the right view of a stereo merge. only set for the stages of the
	// StereoCompositingBlit chain up to and including the first stage that
	// renders. SecondSource is meaningless if SecondSourceTarget is nil
	SecondSource       int
	SecondSourceTarget *rendertarget.RenderTarget
}

// NativeFunc is the signature of native hook functions. An error stops the
// execution of the chain.
type NativeFunc func(inv *Invocation) error

// Native is the payload for a native hook function.
type Native struct {
	Func NativeFunc
}

// Kind implements the Payload interface.
func (Native) Kind() Kind { return NativeKind }
func (Native) sealed()    {}

// Script is the payload for a script hook function.
type Script struct {
	Expr string
}

// Kind implements the Payload interface.
func (Script) Kind() Kind { return ScriptKind }
func (Script) sealed()    {}

// Builtin is the payload for a built-in hook function. The operation is
// selected by the ID of the Function.
type Builtin struct {
	Config string
}

// Kind implements the Payload interface.
func (Builtin) Kind() Kind { return BuiltinKind }
func (Builtin) sealed()    {}

// Function is a single entry in a hook chain.
type Function struct {
	ID      string
	Payload Payload
}

// Kind of the function. NoKind if the function has no payload.
func (f *Function) Kind() Kind {
	if f.Payload == nil {
		return NoKind
	}
	return f.Payload.Kind()
}

// Describe returns a single line description of the function, in the form
// used by Dump().
func (f *Function) Describe() string {
	switch p := f.Payload.(type) {
	case Shader:
		return fmt.Sprintf("GLSL-Shader      : id=%d , luttex1=%d , blitter=%s", p.Program, p.LUTTexture, p.Blitter)
	case Native:
		return fmt.Sprintf("Native-Callback  : func= %p", p.Func)
	case Script:
		return fmt.Sprintf("Script-Function  : Evalstring= %s", p.Expr)
	case Builtin:
		return fmt.Sprintf("Builtin-Function : Name= %s", f.ID)
	case nil:
		return "No-Function      : no payload"
	}
	return fmt.Sprintf("Unknown-Function : %T", f.Payload)
}
