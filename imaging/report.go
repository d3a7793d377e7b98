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
	"io"

	"github.com/stimkit/imagingpipe/curated"
	"gopkg.in/yaml.v3"
)

// Report is a summary of the pipeline state suitable for encoding.
type Report struct {
	Enabled bool   `yaml:"enabled"`
	Flags   string `yaml:"flags"`
	Special string `yaml:"special,omitempty"`
	Stereo  string `yaml:"stereo"`

	Targets  []TargetReport  `yaml:"targets"`
	Bindings []BindingReport `yaml:"bindings"`
}

// TargetReport is an entry in the render target table.
type TargetReport struct {
	Index   int    `yaml:"index"`
	Width   int32  `yaml:"width"`
	Height  int32  `yaml:"height"`
	Format  string `yaml:"format"`
	Depth   bool   `yaml:"depth"`
	Stencil bool   `yaml:"stencil"`
	Packed  bool   `yaml:"packed,omitempty"`
}

// BindingReport is a role slot and the render target it resolves to. An
// index of -1 is the system framebuffer.
type BindingReport struct {
	Role    string `yaml:"role"`
	Slot    int    `yaml:"slot"`
	Binding string `yaml:"binding"`
	Index   int    `yaml:"index"`
}

// Report returns a summary of the state.
func (s *State) Report() Report {
	r := Report{
		Enabled: s.Enabled(),
		Flags:   s.Flags.String(),
		Stereo:  s.Stereo.String(),
	}
	if s.Special != 0 {
		r.Special = s.Special.String()
	}

	r.Targets = make([]TargetReport, 0, len(s.Targets))
	for i, rt := range s.Targets {
		r.Targets = append(r.Targets, TargetReport{
			Index:   i,
			Width:   rt.Width,
			Height:  rt.Height,
			Format:  rt.Format.String(),
			Depth:   rt.Depth != 0,
			Stencil: rt.Stencil != 0 || rt.Packed,
			Packed:  rt.Packed,
		})
	}

	for role := Role(0); role < numRoles; role++ {
		for slot := 0; slot < role.Slots(); slot++ {
			r.Bindings = append(r.Bindings, BindingReport{
				Role:    role.String(),
				Slot:    slot,
				Binding: s.Binding(role, slot).String(),
				Index:   int(s.Index(role, slot)),
			})
		}
	}

	return r
}

// WriteYAML writes the Report() of the state as a YAML document.
func (s *State) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Report()); err != nil {
		return curated.Errorf("imaging: report: %v", err)
	}
	if err := enc.Close(); err != nil {
		return curated.Errorf("imaging: report: %v", err)
	}
	return nil
}
