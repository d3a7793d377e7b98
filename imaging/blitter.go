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
	"strconv"
	"strings"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
)

// Sentinal error patterns
const (
	InvalidBlitterConfig = "imaging: blitter config: %s: %v"
	InvalidBuiltinConfig = "imaging: builtin config: %s: %v"
)

// split a configuration string into tokens. tokens are separated by
// whitespace or semicolons
func tokenise(config string) []string {
	return strings.FieldsFunc(config, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func parseFloats(tok string, args []string, n int) ([]float32, error) {
	if len(args) != n {
		return nil, curated.Userf(InvalidBlitterConfig, tok, "wrong number of values")
	}
	v := make([]float32, n)
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, curated.Userf(InvalidBlitterConfig, tok, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// ParseBlitterConfig parses the blitter configuration of a shader hook
// function. The configuration is a list of tokens:
//
//	Offset:x:y       offset of the source image in pixels
//	Scaling:sx:sy    scaling of the source image
//	Bilinear         bilinear filtering of the source image
//
// An empty configuration is the same as gpu.DefaultBlitConfig.
func ParseBlitterConfig(config string) (gpu.BlitConfig, error) {
	cfg := gpu.DefaultBlitConfig

	for _, tok := range tokenise(config) {
		parts := strings.Split(tok, ":")
		switch parts[0] {
		case "Offset":
			v, err := parseFloats(tok, parts[1:], 2)
			if err != nil {
				return gpu.BlitConfig{}, err
			}
			cfg.OffsetX, cfg.OffsetY = v[0], v[1]
		case "Scaling":
			v, err := parseFloats(tok, parts[1:], 2)
			if err != nil {
				return gpu.BlitConfig{}, err
			}
			cfg.ScaleX, cfg.ScaleY = v[0], v[1]
		case "Bilinear":
			if len(parts) != 1 {
				return gpu.BlitConfig{}, curated.Userf(InvalidBlitterConfig, tok, "unexpected values")
			}
			cfg.Bilinear = true
		default:
			return gpu.BlitConfig{}, curated.Userf(InvalidBlitterConfig, tok, "unknown token")
		}
	}

	return cfg, nil
}

// parseBuiltinConfig parses the configuration of a built-in function. The
// configuration is a list of "Key:value" tokens. Only keys in the allowed
// list are accepted
func parseBuiltinConfig(config string, allowed ...string) (map[string]string, error) {
	vals := make(map[string]string)
	for _, tok := range tokenise(config) {
		k, v, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, curated.Userf(InvalidBuiltinConfig, tok, "expected Key:value")
		}
		found := false
		for _, a := range allowed {
			if a == k {
				found = true
				break // for loop
			}
		}
		if !found {
			return nil, curated.Userf(InvalidBuiltinConfig, tok, "unknown key")
		}
		vals[k] = v
	}
	return vals, nil
}
