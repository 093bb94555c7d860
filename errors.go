/*
Copyright © 2025 the linetopo authors.
This file is part of linetopo.

linetopo is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

linetopo is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with linetopo.  If not, see <http://www.gnu.org/licenses/>.
*/

package linetopo

import "fmt"

// UserInputError indicates a missing precondition (no source layer, no
// selection, no target layer). Operations abort before any mutation
// when returning it.
type UserInputError struct {
	Msg string
}

func (e *UserInputError) Error() string { return "linetopo: " + e.Msg }

func errUserInput(format string, args ...interface{}) *UserInputError {
	return &UserInputError{Msg: fmt.Sprintf(format, args...)}
}

// GeometryDegenerateError describes a feature that cannot be processed
// (fewer than 2 vertices, or a zero-length terminal segment). It is
// recovered per feature; the batch continues.
type GeometryDegenerateError struct {
	Layer     string
	FeatureID int
	Reason    string
}

func (e *GeometryDegenerateError) Error() string {
	return fmt.Sprintf("linetopo: layer %q feature %d: %s", e.Layer, e.FeatureID, e.Reason)
}
