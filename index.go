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
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// featureRef ties a spatial index entry back to its layer and feature
// id. The stored bounds are a snapshot from build time; callers must
// re-fetch live geometry before testing a candidate, since entries go
// stale after mutation within the same pass.
type featureRef struct {
	layer *Layer
	id    int
	b     *geom.Bounds
}

func (r *featureRef) Bounds() *geom.Bounds { return r.b }

// The remaining geom.Geom methods delegate to the stored bounds so
// featureRef satisfies the rtree's element interface; the index only
// ever calls Bounds().
func (r *featureRef) Len() int                              { return r.b.Len() }
func (r *featureRef) Points() func() geom.Point             { return r.b.Points() }
func (r *featureRef) Similar(g geom.Geom, tol float64) bool { return r.b.Similar(g, tol) }
func (r *featureRef) Transform(t proj.Transformer) (geom.Geom, error) {
	return r.b.Transform(t)
}

// layerIndex is a bounding-box index over one layer's features. It is
// rebuilt for every invocation and never maintained incrementally.
type layerIndex struct {
	layer *Layer
	tree  *rtree.Rtree
}

// buildLayerIndex indexes every feature of l except those for which
// skip returns true. Features with fewer than 2 vertices are not
// indexed.
func buildLayerIndex(l *Layer, skip func(id int) bool) *layerIndex {
	ix := &layerIndex{layer: l, tree: rtree.NewTree(25, 50)}
	for _, id := range l.FeatureIDs() {
		if skip != nil && skip(id) {
			continue
		}
		g, ok := l.Feature(id)
		if !ok || len(g) < 2 {
			continue
		}
		ix.tree.Insert(&featureRef{layer: l, id: id, b: g.Bounds()})
	}
	return ix
}

// search returns the refs of all indexed features whose bounding box
// intersects b. False positives are expected; false negatives are not,
// for features present at build time.
func (ix *layerIndex) search(b *geom.Bounds) []*featureRef {
	x := ix.tree.SearchIntersect(b)
	refs := make([]*featureRef, 0, len(x))
	for _, xx := range x {
		refs = append(refs, xx.(*featureRef))
	}
	return refs
}

// newRect builds a bounds object from the corner coordinates.
func newRect(xmin, ymin, xmax, ymax float64) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: xmin, Y: ymin},
		Max: geom.Point{X: xmax, Y: ymax},
	}
}

// bufferBounds returns b expanded by d on every side.
func bufferBounds(b *geom.Bounds, d float64) *geom.Bounds {
	return newRect(b.Min.X-d, b.Min.Y-d, b.Max.X+d, b.Max.Y+d)
}
