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

package curated

import (
	"errors"
	"fmt"
	"strings"
)

// Category of a curated error.
type Category int

// List of valid Category values.
const (
	Uncategorised Category = iota

	// the caller has asked for something that is not valid
	User

	// the graphics hardware can not support the request
	Capability

	// a condition that should never happen
	Internal
)

func (c Category) String() string {
	switch c {
	case User:
		return "user"
	case Capability:
		return "capability"
	case Internal:
		return "internal"
	}
	return "uncategorised"
}

// curated is an implementation of the go language error interface.
type curated struct {
	pattern  string
	values   []any
	category Category
}

// Errorf creates a new curated error.
//
// Note that unlike the Errorf() function in the fmt package the first argument
// is named "pattern" not "format". This is because we use the pattern string
// in the Is() and Has() functions where 'pattern' seems to be more descriptive
// name.
func Errorf(pattern string, values ...any) error {
	return curated{
		pattern: pattern,
		values:  values,
	}
}

// Userf creates a new curated error in the User category.
func Userf(pattern string, values ...any) error {
	return curated{pattern: pattern, values: values, category: User}
}

// Capabilityf creates a new curated error in the Capability category.
func Capabilityf(pattern string, values ...any) error {
	return curated{pattern: pattern, values: values, category: Capability}
}

// Internalf creates a new curated error in the Internal category.
func Internalf(pattern string, values ...any) error {
	return curated{pattern: pattern, values: values, category: Internal}
}

// Error returns the normalised error message. Normalisation being the removal
// of duplicate adjacent error messsage parts in the error message chains. It
// doesn't affect letter-case or white space.
//
// Implements the go language error interface.
func (er curated) Error() string {
	s := fmt.Sprintf(er.pattern, er.values...)

	// de-duplicate error message parts
	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}

	return strings.Join(p, ": ")
}

// Unwrap returns the first error in the placeholder values. Allows curated
// errors to work with the errors package in the standard library.
func (er curated) Unwrap() error {
	for _, v := range er.values {
		if e, ok := v.(error); ok {
			return e
		}
	}
	return nil
}

// IsAny checks if the error is a curated error.
func IsAny(err error) bool {
	if err == nil {
		return false
	}

	var er curated
	return errors.As(err, &er)
}

// Is checks if error is a curated error with a specific pattern.
func Is(err error, pattern string) bool {
	if err == nil {
		return false
	}

	if er, ok := err.(curated); ok {
		return er.pattern == pattern
	}

	return false
}

// Has checks if error is a curated error with a specific pattern somewhere in
// the chain.
func Has(err error, pattern string) bool {
	if err == nil {
		return false
	}

	er, ok := err.(curated)
	if !ok {
		return false
	}

	if er.pattern == pattern {
		return true
	}

	for _, v := range er.values {
		if e, ok := v.(error); ok {
			if Has(e, pattern) {
				return true
			}
		}
	}

	return false
}

// CategoryOf returns the category of the outermost categorised error in the
// chain. Uncategorised is returned if there is no such error.
func CategoryOf(err error) Category {
	for err != nil {
		if er, ok := err.(curated); ok && er.category != Uncategorised {
			return er.category
		}
		err = errors.Unwrap(err)
	}
	return Uncategorised
}
