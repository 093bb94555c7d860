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

// Package linetopo builds topological connectivity between polyline
// layers: it extends dangling line endpoints along their terminal
// bearing until they meet another line, and it inserts shared vertices
// at every line-line intersection inside a selection rectangle.
//
// Operations run synchronously over an explicit LayerSet, build their
// spatial indexes fresh per invocation, and group all geometry
// mutations per layer into single undoable edit commands. Layers may
// carry differing spatial references; tolerances are converted into
// each layer's units before comparison.
package linetopo
