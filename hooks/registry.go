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
	"io"
	"strconv"
	"strings"

	"github.com/stimkit/imagingpipe/curated"
	"github.com/stimkit/imagingpipe/gpu"
)

// Sentinal error patterns
const (
	UnknownHook = "hooks: %s: unknown (non-existent) hook name provided (%s)"
	NoPayload   = "hooks: %s: no payload for hook function (%s)"
)

// Where a new function is inserted into a chain.
type Where int

// List of valid Where values.
const (
	Head Where = iota
	Tail
)

// WhereFromInt converts an integer to a Where value. Zero is Head and any
// other value is Tail.
func WhereFromInt(n int) Where {
	if n == 0 {
		return Head
	}
	return Tail
}

func (w Where) String() string {
	if w == Head {
		return "head"
	}
	return "tail"
}

type chain struct {
	enabled bool
	funcs   []*Function
}

// Registry is the set of hook chains for a single window. All chains start
// disabled and empty.
type Registry struct {
	chains [NumPoints]chain
}

// NewRegistry is the preferred method of initialisation for the Registry type.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) lookup(op string, name string) (*chain, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, curated.Userf(UnknownHook, op, name)
	}
	return &r.chains[p], nil
}

// Add a new function to the named chain. The function is returned so that the
// caller can inspect it.
func (r *Registry) Add(name string, id string, where Where, payload Payload) (*Function, error) {
	c, err := r.lookup("add", name)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, curated.Userf(NoPayload, "add", id)
	}

	f := &Function{ID: id, Payload: payload}
	if where == Head {
		c.funcs = append([]*Function{f}, c.funcs...)
	} else {
		c.funcs = append(c.funcs, f)
	}

	return f, nil
}

// AddShader adds a shader function to the named chain.
func (r *Registry) AddShader(name string, id string, where Where, program gpu.Handle, blitter string, lut gpu.Handle) (*Function, error) {
	return r.Add(name, id, where, Shader{Program: program, Blitter: blitter, LUTTexture: lut})
}

// AddNative adds a native Go function to the named chain.
func (r *Registry) AddNative(name string, id string, where Where, fn NativeFunc) (*Function, error) {
	if fn == nil {
		return nil, curated.Userf(NoPayload, "add native", id)
	}
	return r.Add(name, id, where, Native{Func: fn})
}

// AddScript adds a script function to the named chain.
func (r *Registry) AddScript(name string, id string, where Where, expr string) (*Function, error) {
	return r.Add(name, id, where, Script{Expr: expr})
}

// AddBuiltin adds a built-in function to the named chain. The id selects the
// built-in operation.
func (r *Registry) AddBuiltin(name string, id string, where Where, config string) (*Function, error) {
	return r.Add(name, id, where, Builtin{Config: config})
}

// Enable the named chain.
func (r *Registry) Enable(name string) error {
	c, err := r.lookup("enable", name)
	if err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// Disable the named chain.
func (r *Registry) Disable(name string) error {
	c, err := r.lookup("disable", name)
	if err != nil {
		return err
	}
	c.enabled = false
	return nil
}

// Reset removes all functions from the named chain. The enabled state of the
// chain is not changed.
func (r *Registry) Reset(name string) error {
	c, err := r.lookup("reset", name)
	if err != nil {
		return err
	}
	c.reset()
	return nil
}

func (c *chain) reset() {
	// clear the entries before truncating so that the functions (and their
	// closures) can be collected
	for i := range c.funcs {
		c.funcs[i] = nil
	}
	c.funcs = c.funcs[:0]
}

// ResetAll disables every chain and removes all functions.
func (r *Registry) ResetAll() {
	for i := range r.chains {
		r.chains[i].enabled = false
		r.chains[i].reset()
	}
}

// Enabled returns true if the named chain is enabled.
func (r *Registry) Enabled(name string) (bool, error) {
	c, err := r.lookup("enabled", name)
	if err != nil {
		return false, err
	}
	return c.enabled, nil
}

// Len returns the number of functions in the named chain.
func (r *Registry) Len(name string) (int, error) {
	c, err := r.lookup("len", name)
	if err != nil {
		return 0, err
	}
	return len(c.funcs), nil
}

// Functions returns a copy of the list of functions in the named chain.
func (r *Registry) Functions(name string) ([]*Function, error) {
	c, err := r.lookup("functions", name)
	if err != nil {
		return nil, err
	}
	return append([]*Function{}, c.funcs...), nil
}

// Chain returns whether the chain is enabled and a copy of the list of
// functions in the chain. Intended for use when executing the chain. An
// invalid Point is treated as a disabled chain.
func (r *Registry) Chain(p Point) (bool, []*Function) {
	if !p.Valid() {
		return false, nil
	}
	c := &r.chains[p]
	if !c.enabled {
		return false, nil
	}
	return true, append([]*Function{}, c.funcs...)
}

// SlotInfo is the result of a Query().
type SlotInfo struct {
	Slot int
	ID   string
	Kind Kind

	// the blitter configuration of a shader function, the expression of a
	// script function or the configuration of a built-in function
	Config string

	Native     NativeFunc
	Program    gpu.Handle
	LUTTexture gpu.Handle
}

// Query the named chain for a function. If indexOrID is a non-negative integer
// then the function in that slot (counting from zero) is returned, otherwise
// the first function with a matching ID.
//
// Returns false if there is no such slot. This is a normal outcome and is not
// an error.
func (r *Registry) Query(name string, indexOrID string) (SlotInfo, bool, error) {
	c, err := r.lookup("query", name)
	if err != nil {
		return SlotInfo{}, false, err
	}

	slot := -1
	if n, err := strconv.Atoi(strings.TrimSpace(indexOrID)); err == nil && n >= 0 {
		if n < len(c.funcs) {
			slot = n
		}
	} else {
		for i, f := range c.funcs {
			if f.ID == indexOrID {
				slot = i
				break // for loop
			}
		}
	}

	if slot == -1 {
		return SlotInfo{}, false, nil
	}

	f := c.funcs[slot]
	info := SlotInfo{
		Slot: slot,
		ID:   f.ID,
		Kind: f.Kind(),
	}

	switch p := f.Payload.(type) {
	case Shader:
		info.Config = p.Blitter
		info.Program = p.Program
		info.LUTTexture = p.LUTTexture
	case Native:
		info.Native = p.Func
	case Script:
		info.Config = p.Expr
	case Builtin:
		info.Config = p.Config
	}

	return info, true, nil
}

// Dump writes the state of the named chain in human readable form.
func (r *Registry) Dump(w io.Writer, name string) error {
	c, err := r.lookup("dump", name)
	if err != nil {
		return err
	}

	state := "disabled"
	if c.enabled {
		state = "enabled"
	}
	fmt.Fprintf(w, "Hook chain %s is currently %s.\n", name, state)

	if len(c.funcs) == 0 {
		io.WriteString(w, "No processing assigned to this hook-chain.\n")
	} else {
		io.WriteString(w, "Following hook slots are assigned to this hook-chain:\n")
		io.WriteString(w, "=====================================================\n")
	}

	for i, f := range c.funcs {
		fmt.Fprintf(w, "Slot %d: Id='%s' : %s\n", i, f.ID, f.Describe())
	}

	io.WriteString(w, "=====================================================\n\n")

	return nil
}

// DumpAll writes the state of every chain in catalog order.
func (r *Registry) DumpAll(w io.Writer) {
	for _, c := range catalog {
		_ = r.Dump(w, c.Name)
	}
}
