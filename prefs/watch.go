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

package prefs

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/logger"
)

// Watcher reports changes to the preferences file of a Disk instance.
type Watcher struct {
	watcher *fsnotify.Watcher
	changed chan struct{}
	done    chan struct{}
}

// Watch the preferences file for changes. The directory containing the file
// is watched so that replacing the file is noticed in addition to writing
// to it.
//
// Watch does not load the new values. The Changed() channel should be
// checked and Load() called by the goroutine that uses the preferences.
func (dsk *Disk) Watch() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, curated.Errorf("prefs: watch: %v", err)
	}

	err = w.Add(filepath.Dir(dsk.path))
	if err != nil {
		_ = w.Close()
		return nil, curated.Errorf("prefs: watch: %v", err)
	}

	wt := &Watcher{
		watcher: w,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	name := filepath.Clean(dsk.path)

	go func() {
		for {
			select {
			case <-wt.done:
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue // for loop
				}
				switch {
				case event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create ||
					event.Op&fsnotify.Rename == fsnotify.Rename:

					// a pending notification covers any number of changes
					select {
					case wt.changed <- struct{}{}:
					default:
					}
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Logf(logger.Allow, "prefs", "watch: %v", err)
			}
		}
	}()

	return wt, nil
}

// Changed receives a value when the preferences file has changed.
func (wt *Watcher) Changed() <-chan struct{} {
	return wt.changed
}

// Close stops watching the file. It must only be called once.
func (wt *Watcher) Close() error {
	close(wt.done)
	if err := wt.watcher.Close(); err != nil {
		return curated.Errorf("prefs: watch: %v", err)
	}
	return nil
}
