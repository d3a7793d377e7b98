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
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/stimkit/imagingpipe/curated"
)

// Value represents the actual Go preference value.
type Value any

// types support by the prefs system must implement the pref interface.
type pref interface {
	fmt.Stringer
	Set(value Value) error
	Get() Value
	Reset() error
}

// pattern for errors when a value can not be converted to the preference type
const conversionError = "prefs: cannot convert %T to %s"

// hooks are shared by all preference types. a hook is called every time the
// value is set, even if the value hasn't changed.
type hooks struct {
	hookPre  func(value Value) error
	hookPost func(value Value) error
}

// SetHookPre sets the callback function to be called just before the prefs
// value is updated. An error returned by the callback prevents the update.
func (h *hooks) SetHookPre(f func(value Value) error) {
	h.hookPre = f
}

// SetHookPost sets the callback function to be called just after the prefs
// value is updated.
func (h *hooks) SetHookPost(f func(value Value) error) {
	h.hookPost = f
}

// store runs the pre hook, stores the value and then runs the post hook
func (h *hooks) store(av *atomic.Value, nv Value) error {
	if h.hookPre != nil {
		if err := h.hookPre(nv); err != nil {
			return err
		}
	}
	av.Store(nv)
	if h.hookPost != nil {
		if err := h.hookPost(nv); err != nil {
			return err
		}
	}
	return nil
}

// Bool implements a boolean type in the prefs system.
type Bool struct {
	hooks
	value atomic.Value // bool
}

func (p *Bool) String() string {
	return fmt.Sprintf("%v", p.Get())
}

// Set new value to Bool type. New value must be of type bool or string. A
// string value of anything other than "true" (case insensitive) will set the
// value to false.
func (p *Bool) Set(v Value) error {
	var nv bool
	switch v := v.(type) {
	case bool:
		nv = v
	case string:
		nv = strings.ToLower(strings.TrimSpace(v)) == "true"
	default:
		return curated.Errorf(conversionError, v, "prefs.Bool")
	}
	return p.store(&p.value, nv)
}

// Get returns the raw pref value.
func (p *Bool) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return false
	}
	return ov.(bool)
}

// Reset sets the boolean value to false.
func (p *Bool) Reset() error {
	return p.Set(false)
}

// String implements a string type in the prefs system.
type String struct {
	hooks
	maxLen int
	value  atomic.Value // string
}

func (p *String) String() string {
	ov := p.value.Load()
	if ov == nil {
		return ""
	}
	return ov.(string)
}

// SetMaxLen sets the maximum length for a string when it is set. To set no
// limit use a value less than or equal to zero. The existing string will be
// cropped if necessary.
func (p *String) SetMaxLen(max int) {
	p.maxLen = max
	if s := p.String(); p.maxLen > 0 && len(s) > p.maxLen {
		p.value.Store(s[:p.maxLen])
	}
}

// Set new value to String type. Values of other types are converted with the
// %v verb.
func (p *String) Set(v Value) error {
	nv := fmt.Sprintf("%v", v)
	if p.maxLen > 0 && len(nv) > p.maxLen {
		nv = nv[:p.maxLen]
	}
	return p.store(&p.value, nv)
}

// Get returns the raw pref value.
func (p *String) Get() Value {
	return p.String()
}

// Reset sets the string value to the empty string.
func (p *String) Reset() error {
	return p.Set("")
}

// Int implements an integer type in the prefs system.
type Int struct {
	hooks
	value atomic.Value // int
}

func (p *Int) String() string {
	return fmt.Sprintf("%d", p.Get())
}

// Set new value to Int type. New value can be an int, int32, int64 or string.
func (p *Int) Set(v Value) error {
	var nv int
	switch v := v.(type) {
	case int64:
		nv = int(v)
	case int32:
		nv = int(v)
	case int:
		nv = v
	case string:
		var err error
		nv, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return curated.Errorf("prefs: cannot convert %T to prefs.Int: %v", v, err)
		}
	default:
		return curated.Errorf(conversionError, v, "prefs.Int")
	}
	return p.store(&p.value, nv)
}

// Get returns the raw pref value.
func (p *Int) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return 0
	}
	return ov.(int)
}

// Reset sets the int value to zero.
func (p *Int) Reset() error {
	return p.Set(0)
}

// Float implements a floating point type in the prefs system.
type Float struct {
	hooks
	value atomic.Value // float64
}

func (p *Float) String() string {
	return fmt.Sprintf("%.3f", p.Get())
}

// Set new value to Float type. New value can be a float64, float32, int or
// string.
func (p *Float) Set(v Value) error {
	var nv float64
	switch v := v.(type) {
	case float64:
		nv = v
	case float32:
		nv = float64(v)
	case int:
		nv = float64(v)
	case string:
		var err error
		nv, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return curated.Errorf("prefs: cannot convert %T to prefs.Float: %v", v, err)
		}
	default:
		return curated.Errorf(conversionError, v, "prefs.Float")
	}
	return p.store(&p.value, nv)
}

// Get returns the raw pref value.
func (p *Float) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return float64(0.0)
	}
	return ov.(float64)
}

// Reset sets the float value to zero.
func (p *Float) Reset() error {
	return p.Set(0.0)
}
