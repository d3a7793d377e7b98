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

package gpu

import "fmt"

// BlitConfig controls how DrawTexturedQuad() maps the source texture to the
// destination.
type BlitConfig struct {
	// offset of the quad in the destination in pixels
	OffsetX float32
	OffsetY float32

	// scaling applied to the quad. zero values are treated as 1.0
	ScaleX float32
	ScaleY float32

	// bilinear filtering of the source texture. nearest neighbour otherwise
	Bilinear bool
}

// DefaultBlitConfig is the identity blit.
var DefaultBlitConfig = BlitConfig{ScaleX: 1.0, ScaleY: 1.0}

// Scale returns the scaling factors with zero values replaced by 1.0.
func (cfg BlitConfig) Scale() (float32, float32) {
	sx, sy := cfg.ScaleX, cfg.ScaleY
	if sx == 0 {
		sx = 1.0
	}
	if sy == 0 {
		sy = 1.0
	}
	return sx, sy
}

func (cfg BlitConfig) String() string {
	sx, sy := cfg.Scale()
	s := fmt.Sprintf("offset=%g:%g scale=%g:%g", cfg.OffsetX, cfg.OffsetY, sx, sy)
	if cfg.Bilinear {
		s = fmt.Sprintf("%s bilinear", s)
	}
	return s
}
