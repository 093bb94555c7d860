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

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// A Layer is a named, CRS-tagged collection of polyline features.
// Geometry changes must happen inside an edit session, and changes made
// between BeginEditCommand and EndEditCommand are undone together.
type Layer struct {
	Name string

	// SR is the layer's spatial reference. A nil SR means the layer
	// shares the display spatial reference.
	SR *proj.SR

	// Visible reports whether the layer participates in interactive
	// operations that work on "all visible layers".
	Visible bool

	features map[int]geom.LineString
	order    []int
	nextID   int

	editing bool
	current *editCommand
	undo    []*editCommand
}

// An editCommand records the pre-change geometry of every feature
// touched while the command was open.
type editCommand struct {
	name string
	prev map[int]geom.LineString
}

// NewLayer creates an empty layer. sr may be nil for layers in the
// display spatial reference.
func NewLayer(name string, sr *proj.SR) *Layer {
	return &Layer{
		Name:     name,
		SR:       sr,
		Visible:  true,
		features: make(map[int]geom.LineString),
	}
}

// AddFeature adds a feature to the layer and returns its id.
// Adding features does not require an edit session; only geometry
// changes to existing features do.
func (l *Layer) AddFeature(g geom.LineString) int {
	id := l.nextID
	l.nextID++
	l.features[id] = cloneLine(g)
	l.order = append(l.order, id)
	return id
}

// Feature returns a copy of the geometry for the given feature id.
// Callers must re-fetch after any mutation; copies are never kept
// current.
func (l *Layer) Feature(id int) (geom.LineString, bool) {
	g, ok := l.features[id]
	if !ok {
		return nil, false
	}
	return cloneLine(g), true
}

// FeatureIDs returns the ids of all features in insertion order.
func (l *Layer) FeatureIDs() []int {
	ids := make([]int, len(l.order))
	copy(ids, l.order)
	return ids
}

// Len returns the number of features in the layer.
func (l *Layer) Len() int { return len(l.order) }

// Editing reports whether the layer is in an edit session.
func (l *Layer) Editing() bool { return l.editing }

// StartEditing puts the layer into an edit session. It is a no-op if
// the layer is already editing.
func (l *Layer) StartEditing() { l.editing = true }

// StopEditing ends the edit session, keeping all applied changes. The
// undo history is discarded.
func (l *Layer) StopEditing() {
	l.editing = false
	l.current = nil
	l.undo = nil
}

// BeginEditCommand opens a named undo group. All geometry changes until
// the matching EndEditCommand are reverted together by Undo.
func (l *Layer) BeginEditCommand(name string) error {
	if !l.editing {
		return fmt.Errorf("linetopo: layer %q is not in an edit session", l.Name)
	}
	if l.current != nil {
		return fmt.Errorf("linetopo: layer %q already has an open edit command %q", l.Name, l.current.name)
	}
	l.current = &editCommand{name: name, prev: make(map[int]geom.LineString)}
	return nil
}

// EndEditCommand closes the open undo group. Closing an empty group
// discards it.
func (l *Layer) EndEditCommand() {
	if l.current == nil {
		return
	}
	if len(l.current.prev) > 0 {
		l.undo = append(l.undo, l.current)
	}
	l.current = nil
}

// ChangeGeometry replaces the geometry of an existing feature. The
// layer must be in an edit session.
func (l *Layer) ChangeGeometry(id int, g geom.LineString) error {
	if !l.editing {
		return fmt.Errorf("linetopo: layer %q is not in an edit session", l.Name)
	}
	old, ok := l.features[id]
	if !ok {
		return fmt.Errorf("linetopo: layer %q has no feature %d", l.Name, id)
	}
	if l.current != nil {
		// Only the geometry as it was when the command opened is
		// needed to revert the whole group.
		if _, seen := l.current.prev[id]; !seen {
			l.current.prev[id] = old
		}
	}
	l.features[id] = cloneLine(g)
	return nil
}

// Undo reverts the most recently closed edit command. It reports
// whether anything was reverted.
func (l *Layer) Undo() bool {
	if len(l.undo) == 0 {
		return false
	}
	cmd := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	for id, g := range cmd.prev {
		l.features[id] = g
	}
	return true
}

// VertexCount returns the total number of vertices across all features
// in the layer.
func (l *Layer) VertexCount() int {
	n := 0
	for _, g := range l.features {
		n += len(g)
	}
	return n
}

// A LayerSet is an explicit group of layers passed into an operation.
// Components never consult global project state.
type LayerSet []*Layer

// Visible returns the subset of layers that are currently visible.
func (ls LayerSet) Visible() LayerSet {
	var out LayerSet
	for _, l := range ls {
		if l.Visible {
			out = append(out, l)
		}
	}
	return out
}

func cloneLine(g geom.LineString) geom.LineString {
	out := make(geom.LineString, len(g))
	copy(out, g)
	return out
}
