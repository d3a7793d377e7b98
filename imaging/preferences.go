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
	"github.com/stimkit/imagingpipe/logger"
	"github.com/stimkit/imagingpipe/paths"
	"github.com/stimkit/imagingpipe/prefs"
	"github.com/stimkit/imagingpipe/rendertarget"
)

// PrefsFile is the name of the preferences file in the resource directory.
const PrefsFile = "imaging.toml"

// Preferences for the imaging pipeline.
type Preferences struct {
	dsk *prefs.Disk

	// amount of log output. warnings are logged above a level of 1,
	// information above 2 and debugging output above 4
	Verbosity prefs.Int

	// allocate depth and stencil buffers for the draw buffers
	Enable3D prefs.Bool

	// draw blue line sync markers in quad-buffered stereo mode
	StereoSyncLines prefs.Bool
	SyncLineHeight  prefs.Int
}

func (p *Preferences) String() string {
	return p.dsk.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the preferences file in the
// resource directory.
func NewPreferences() (*Preferences, error) {
	pth, err := paths.MakeResourceDir(PrefsFile)
	if err != nil {
		return nil, err
	}
	return NewPreferencesFile(pth)
}

// NewPreferencesFile is the same as NewPreferences() but with an explicit
// path for the preferences file.
func NewPreferencesFile(pth string) (*Preferences, error) {
	p := &Preferences{}
	p.SetDefaults()

	var err error
	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}

	err = p.dsk.Add("imaging.verbosity", &p.Verbosity)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("imaging.enable3d", &p.Enable3D)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("imaging.stereosynclines", &p.StereoSyncLines)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("imaging.synclineheight", &p.SyncLineHeight)
	if err != nil {
		return nil, err
	}

	err = p.dsk.Load()
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all preferences to their default values.
func (p *Preferences) SetDefaults() {
	_ = p.Verbosity.Set(3)
	_ = p.Enable3D.Set(false)
	_ = p.StereoSyncLines.Set(false)
	_ = p.SyncLineHeight.Set(1)
}

// Load preferences from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load()
}

// Save preferences to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// Watch the preferences file for changes made by another process. See
// prefs.Disk.Watch().
func (p *Preferences) Watch() (*prefs.Watcher, error) {
	return p.dsk.Watch()
}

// permissions for the rendertarget package, which does not have access to
// the preferences. the permissions follow later changes to the verbosity
func (p *Preferences) rendertargetVerbosity() rendertarget.Verbosity {
	return rendertarget.Verbosity{
		Warnings: p.VerbosityAbove(1),
		Debug:    p.VerbosityAbove(4),
	}
}

type verbosity struct {
	p     *Preferences
	level int
}

func (v verbosity) AllowLogging() bool {
	return v.p.Verbosity.Get().(int) > v.level
}

// VerbosityAbove returns a logger.Permission that allows logging when the
// verbosity preference is greater than level.
func (p *Preferences) VerbosityAbove(level int) logger.Permission {
	return verbosity{p: p, level: level}
}
