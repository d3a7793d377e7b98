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

package modalflag

import (
	"flag"
	"io"
	"strings"
)

const modeSeparator = "/"

// Modes provides an easy way of handling command line arguments. The Output
// field should be specified before calling Parse() or you will not see any
// help messages.
type Modes struct {
	// where to print output (help messages etc)
	Output io.Writer

	// a new flagset is created on every call to NewArgs() and NewMode()
	flags *flag.FlagSet

	// the argument list as specified by the NewArgs() function
	args    []string
	argsIdx int

	// the most recent list of sub-modes specified with the AddSubModes()
	// function
	subModes []string

	// the series of sub-modes that have been found during subsequent calls to
	// Parse(). never reset
	path []string

	additionalHelp string
}

func (md *Modes) String() string {
	return md.Path()
}

// Mode returns the last mode to be encountered.
func (md *Modes) Mode() string {
	if len(md.path) == 0 {
		return ""
	}
	return md.path[len(md.path)-1]
}

// Path returns a string of all the modes encountered during parsing.
func (md *Modes) Path() string {
	return strings.Join(md.path, modeSeparator)
}

// NewArgs with a string of arguments (from the command line for example).
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.argsIdx = 0
	md.NewMode()
}

// NewMode indicates that further arguments should be considered part of a new
// mode.
func (md *Modes) NewMode() {
	md.subModes = md.subModes[:0]
	md.flags = flag.NewFlagSet("", flag.ContinueOnError)
	md.additionalHelp = ""
}

// AdditionalHelp allows you to add extensive help text to be displayed in
// addition to the regular help on available flags.
func (md *Modes) AdditionalHelp(help string) {
	md.additionalHelp = help
}

// ParseResult is returned from the Parse() function.
type ParseResult int

// a list of valid ParseResult values.
const (
	// continue with command line processing. if sub-modes were specified
	// then the Mode() function should be checked
	ParseContinue ParseResult = iota

	// help was requested and has been printed
	ParseHelp

	// an error has occurred and is returned as the second return value
	ParseError
)

// Parse the top level layer of arguments. The idiomatic usage is as follows:
//
//	p, err := md.Parse()
//	switch p {
//	case ParseHelp:
//		// help message has already been printed
//		return nil
//	case ParseError:
//		return err
//	}
func (md *Modes) Parse() (ParseResult, error) {
	hw := &helpWriter{}
	md.flags.SetOutput(hw)

	err := md.flags.Parse(md.args[md.argsIdx:])
	if err != nil {
		if err == flag.ErrHelp {
			if md.Output != nil {
				hw.help(md.Output, md.Path(), md.subModes, md.additionalHelp)
			}
			return ParseHelp, nil
		}

		// flags have been set that are not recognised. if sub-modes have been
		// defined then the flags are assumed to belong to the default mode
		if len(md.subModes) > 0 {
			md.path = append(md.path, md.subModes[0])
			return ParseContinue, nil
		}
		return ParseError, err
	}

	// skip past the parsed flags
	md.argsIdx = len(md.args) - md.flags.NArg()

	if len(md.subModes) > 0 {
		// assume default mode unless the next argument is a listed sub-mode
		mode := md.subModes[0]
		arg := strings.ToUpper(md.flags.Arg(0))
		for _, m := range md.subModes {
			if m == arg {
				mode = arg
				break // for loop
			}
		}

		if mode == arg {
			md.argsIdx++
		}

		md.path = append(md.path, mode)
	}

	return ParseContinue, nil
}

// RemainingArgs after a call to Parse() ie. arguments that aren't flags or a
// listed sub-mode.
func (md *Modes) RemainingArgs() []string {
	return md.args[md.argsIdx:]
}

// GetArg returns the numbered argument that isn't a flag or listed sub-mode.
func (md *Modes) GetArg(i int) string {
	r := md.RemainingArgs()
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// AddSubModes to list of submodes for next parse. The first sub-mode in the
// list is considered to be the default sub-mode.
func (md *Modes) AddSubModes(submodes ...string) {
	for _, s := range submodes {
		md.subModes = append(md.subModes, strings.ToUpper(s))
	}
}

// AddBool flag for next call to Parse().
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.flags.Bool(name, value, usage)
}

// AddInt flag for next call to Parse().
func (md *Modes) AddInt(name string, value int, usage string) *int {
	return md.flags.Int(name, value, usage)
}

// AddString flag for next call to Parse().
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.flags.String(name, value, usage)
}
