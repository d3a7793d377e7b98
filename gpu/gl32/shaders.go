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

package gl32

import (
	"strings"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
)

// ShaderCompile is the pattern for shader compilation and link errors.
const ShaderCompile = "gl32: shader: %s"

// attribute locations shared by every program used for DrawTexturedQuad()
const (
	positionLocation = 0
	uvLocation       = 1
)

// VertexShader is the vertex shader used by the identity program. It is
// suitable for use with any fragment shader that reads Frag_UV.
const VertexShader = `#version 150
in vec2 Position;
in vec2 UV;
uniform vec2 Offset;
uniform vec2 Scale;
uniform vec2 ViewportSize;
out vec2 Frag_UV;
void main() {
	vec2 p = Position * Scale;
	if (ViewportSize.x > 0.0 && ViewportSize.y > 0.0) {
		p += (Offset / ViewportSize) * 2.0;
	}
	Frag_UV = UV;
	gl_Position = vec4(p, 0.0, 1.0);
}
`

// IdentityFragmentShader copies the source image unchanged.
const IdentityFragmentShader = `#version 150
uniform sampler2D Image;
in vec2 Frag_UV;
out vec4 Out_Color;
void main() {
	Out_Color = texture(Image, Frag_UV);
}
`

// InvertFragmentShader inverts the colour of the source image. Alpha is
// unchanged.
const InvertFragmentShader = `#version 150
uniform sampler2D Image;
in vec2 Frag_UV;
out vec4 Out_Color;
void main() {
	vec4 c = texture(Image, Frag_UV);
	Out_Color = vec4(vec3(1.0) - c.rgb, c.a);
}
`

// MergeFragmentShader is an example of a stereo merge shader. The left view
// is read from Image and the right view from Image2. The result is a red/cyan
// anaglyph.
const MergeFragmentShader = `#version 150
uniform sampler2D Image;
uniform sampler2D Image2;
in vec2 Frag_UV;
out vec4 Out_Color;
void main() {
	vec4 l = texture(Image, Frag_UV);
	vec4 r = texture(Image2, Frag_UV);
	Out_Color = vec4(l.r, r.g, r.b, 1.0);
}
`

// uniform locations for a program. a location of -1 means the program does
// not use the uniform
type uniforms struct {
	image        int32
	lut          int32
	image2       int32
	offset       int32
	scale        int32
	viewportSize int32
}

func getUniforms(prog uint32) uniforms {
	return uniforms{
		image:        gl.GetUniformLocation(prog, gl.Str("Image"+"\x00")),
		lut:          gl.GetUniformLocation(prog, gl.Str("LUT"+"\x00")),
		image2:       gl.GetUniformLocation(prog, gl.Str("Image2"+"\x00")),
		offset:       gl.GetUniformLocation(prog, gl.Str("Offset"+"\x00")),
		scale:        gl.GetUniformLocation(prog, gl.Str("Scale"+"\x00")),
		viewportSize: gl.GetUniformLocation(prog, gl.Str("ViewportSize"+"\x00")),
	}
}

// CompileProgram compiles and links a shader program from vertex and fragment
// source. The program is suitable for use in a shader hook.
func CompileProgram(vertProgram string, fragProgram string) (gpu.Handle, error) {
	handle := gl.CreateProgram()

	vertHandle := gl.CreateShader(gl.VERTEX_SHADER)
	fragHandle := gl.CreateShader(gl.FRAGMENT_SHADER)

	// the individual shaders are no longer needed once the program has been
	// linked or if there is an error
	defer gl.DeleteShader(fragHandle)
	defer gl.DeleteShader(vertHandle)

	glShaderSource := func(handle uint32, source string) {
		csource, free := gl.Strs(source + "\x00")
		defer free()
		gl.ShaderSource(handle, 1, csource, nil)
	}

	glShaderSource(vertHandle, vertProgram)
	glShaderSource(fragHandle, fragProgram)

	gl.CompileShader(vertHandle)
	if log := getShaderCompileError(vertHandle); log != "" {
		gl.DeleteProgram(handle)
		return 0, curated.Userf(ShaderCompile, log)
	}

	gl.CompileShader(fragHandle)
	if log := getShaderCompileError(fragHandle); log != "" {
		gl.DeleteProgram(handle)
		return 0, curated.Userf(ShaderCompile, log)
	}

	gl.AttachShader(handle, vertHandle)
	gl.AttachShader(handle, fragHandle)
	gl.BindAttribLocation(handle, positionLocation, gl.Str("Position"+"\x00"))
	gl.BindAttribLocation(handle, uvLocation, gl.Str("UV"+"\x00"))
	gl.LinkProgram(handle)

	if log := getProgramLinkError(handle); log != "" {
		gl.DeleteProgram(handle)
		return 0, curated.Userf(ShaderCompile, log)
	}

	return gpu.Handle(handle), nil
}

// DeleteProgram deletes a program created with CompileProgram().
func DeleteProgram(prog gpu.Handle) {
	if prog != 0 {
		gl.DeleteProgram(uint32(prog))
	}
}

// getShaderCompileError returns the most recent error generated by the
// shader compiler.
func getShaderCompileError(shader uint32) string {
	var isCompiled int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &isCompiled)
	if isCompiled == 0 {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		if logLength > 0 {
			// the maxLength includes the NULL character
			log := strings.Repeat("\x00", int(logLength+1))
			gl.GetShaderInfoLog(shader, logLength, &logLength, gl.Str(log))
			return strings.TrimRight(log, "\x00")
		}
		return "compilation failed"
	}
	return ""
}

// getProgramLinkError returns the most recent error generated by the linker.
func getProgramLinkError(prog uint32) string {
	var isLinked int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &isLinked)
	if isLinked == 0 {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		if logLength > 0 {
			log := strings.Repeat("\x00", int(logLength+1))
			gl.GetProgramInfoLog(prog, logLength, &logLength, gl.Str(log))
			return strings.TrimRight(log, "\x00")
		}
		return "link failed"
	}
	return ""
}
